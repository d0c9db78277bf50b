package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/otelbot/models"
	"github.com/akinalp/otelbot/pkg"
)

// sqliteOwnershipRepo, OwnershipRepository interface'inin SQLite implementasyonu.
type sqliteOwnershipRepo struct {
	db *sql.DB
}

// NewSQLiteOwnershipRepo, constructor — interface döner (Dependency Inversion).
func NewSQLiteOwnershipRepo(db *sql.DB) OwnershipRepository {
	return &sqliteOwnershipRepo{db: db}
}

func (r *sqliteOwnershipRepo) Get(ctx context.Context, userID uint64) (*models.RoomOwnership, error) {
	query := `SELECT channel_id FROM user_room_ownership WHERE user_id = ?`

	var channelID int64
	err := r.db.QueryRowContext(ctx, query, snowflakeToColumn(userID)).Scan(&channelID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNoRoom
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch room for user %d: %v", pkg.ErrStore, userID, err)
	}

	return &models.RoomOwnership{
		UserID:    userID,
		ChannelID: columnToSnowflake(channelID),
	}, nil
}

func (r *sqliteOwnershipRepo) Insert(ctx context.Context, userID, channelID uint64) error {
	query := `INSERT INTO user_room_ownership (user_id, channel_id) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		snowflakeToColumn(userID),
		snowflakeToColumn(channelID),
	)
	if err != nil {
		// Duplicate key (kullanıcının zaten odası var) da buraya düşer —
		// caller için ikisi de compensate-and-fail yoludur.
		return fmt.Errorf("%w: failed to insert ownership for user %d: %v", pkg.ErrStore, userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check rows affected: %v", pkg.ErrStore, err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: ownership insert for user %d affected %d rows, expected 1", pkg.ErrStore, userID, affected)
	}

	return nil
}

func (r *sqliteOwnershipRepo) UpdateChannelID(ctx context.Context, userID, channelID uint64) error {
	query := `UPDATE user_room_ownership SET channel_id = ? WHERE user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		snowflakeToColumn(channelID),
		snowflakeToColumn(userID),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to reset room id for user %d: %v", pkg.ErrStore, userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check rows affected: %v", pkg.ErrStore, err)
	}
	if affected == 0 {
		return pkg.ErrNoRoom
	}

	return nil
}
