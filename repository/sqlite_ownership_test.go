package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/akinalp/otelbot/pkg"
)

// newTestDB, in-memory SQLite açar ve şemayı kurar.
// :memory: bağlantı başına ayrı DB verir — pool tek bağlantıya sabitlenir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE user_room_ownership (
			user_id    BIGINT PRIMARY KEY,
			channel_id BIGINT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func TestInsertAndGet(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, 1001, 42); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ownership, err := repo.Get(ctx, 1001)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ownership.UserID != 1001 || ownership.ChannelID != 42 {
		t.Errorf("ownership = %+v, want user 1001 with channel 42", ownership)
	}
}

func TestGetMissReturnsNoRoom(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))

	_, err := repo.Get(context.Background(), 1001)
	if !errors.Is(err, pkg.ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom, got %v", err)
	}
}

// Duplicate insert primary key'e çarpar — ErrStore sarmalı hata döner,
// mevcut satır değişmez. Uniqueness'ın TEK enforcement noktası burasıdır.
func TestInsertDuplicateFailsAndPreservesRow(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, 1001, 42); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	err := repo.Insert(ctx, 1001, 43)
	if !errors.Is(err, pkg.ErrStore) {
		t.Fatalf("expected ErrStore for duplicate insert, got %v", err)
	}
	if errors.Is(err, pkg.ErrNoRoom) {
		t.Error("duplicate insert must not be reported as a lookup miss")
	}

	ownership, err := repo.Get(ctx, 1001)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ownership.ChannelID != 42 {
		t.Errorf("original row changed: channel id = %d, want 42", ownership.ChannelID)
	}
}

func TestUpdateChannelID(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, 1001, 42); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.UpdateChannelID(ctx, 1001, 777); err != nil {
		t.Fatalf("UpdateChannelID failed: %v", err)
	}

	ownership, err := repo.Get(ctx, 1001)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ownership.ChannelID != 777 {
		t.Errorf("channel id = %d, want 777", ownership.ChannelID)
	}
}

// Satırı olmayan kullanıcıya update: sessiz no-op yerine ErrNoRoom.
func TestUpdateChannelIDWithoutRow(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))

	err := repo.UpdateChannelID(context.Background(), 1001, 777)
	if !errors.Is(err, pkg.ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom, got %v", err)
	}
}

// Üst biti set snowflake'ler signed kolonda negatif saklanır ama bit
// pattern'i korunarak aynen geri okunmalıdır (kayıpsız round-trip).
func TestHighBitSnowflakeRoundTrip(t *testing.T) {
	repo := NewSQLiteOwnershipRepo(newTestDB(t))
	ctx := context.Background()

	const (
		highUser    = uint64(0xFFFFFFFFFFFFFFFF) // kolonda -1 olur
		highChannel = uint64(0x8000000000000000) // kolonda math.MinInt64 olur
	)

	if err := repo.Insert(ctx, highUser, highChannel); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ownership, err := repo.Get(ctx, highUser)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ownership.ChannelID != highChannel {
		t.Errorf("round-trip lost bits: got %d, want %d", ownership.ChannelID, highChannel)
	}
}
