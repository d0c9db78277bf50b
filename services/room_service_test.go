package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akinalp/otelbot/discord"
	"github.com/akinalp/otelbot/models"
	"github.com/akinalp/otelbot/pkg"
)

// ─── Fake'ler ───
//
// Service katmanı sadece interface görür; testlerde gerçek SQLite ve
// Discord yerine davranışı kontrol edilebilen fake'ler wire edilir.

// fakeOwnerships, OwnershipRepository'nin in-memory fake'i.
// Gerçek store gibi user başına tek satır tutar — Insert, mevcut satıra
// çarparsa primary key ihlali gibi pkg.ErrStore sarmalı hata döner.
type fakeOwnerships struct {
	rows map[uint64]uint64

	insertErr error // set edilirse Insert her zaman bununla döner
	getErr    error // set edilirse Get her zaman bununla döner
}

func newFakeOwnerships() *fakeOwnerships {
	return &fakeOwnerships{rows: make(map[uint64]uint64)}
}

func (f *fakeOwnerships) Get(ctx context.Context, userID uint64) (*models.RoomOwnership, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	channelID, ok := f.rows[userID]
	if !ok {
		return nil, pkg.ErrNoRoom
	}
	return &models.RoomOwnership{UserID: userID, ChannelID: channelID}, nil
}

func (f *fakeOwnerships) Insert(ctx context.Context, userID, channelID uint64) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, exists := f.rows[userID]; exists {
		return fmt.Errorf("%w: failed to insert ownership for user %d: UNIQUE constraint failed", pkg.ErrStore, userID)
	}
	f.rows[userID] = channelID
	return nil
}

func (f *fakeOwnerships) UpdateChannelID(ctx context.Context, userID, channelID uint64) error {
	if _, exists := f.rows[userID]; !exists {
		return pkg.ErrNoRoom
	}
	f.rows[userID] = channelID
	return nil
}

// overwriteKey, fakeProvisioner'ın overwrite map key'i.
type overwriteKey struct {
	channelID uint64
	target    discord.OverwriteTarget
}

type overwriteValue struct {
	allow int64
	deny  int64
}

// fakeProvisioner, ChannelProvisioner'ın kayıt tutan fake'i.
// Overwrite'lar gerçek platform gibi upsert/clear semantiğiyle saklanır —
// open/close testleri son overwrite durumunu doğrular.
type fakeProvisioner struct {
	nextChannelID uint64
	names         map[uint64]string

	created    []string // oluşturulan kanal isimleri, sırayla
	deleted    []uint64 // silinen kanal ID'leri, sırayla
	renames    map[uint64]string
	overwrites map[overwriteKey]overwriteValue
	clears     []overwriteKey

	createErr error
	deleteErr error
	setErr    error
	nameErr   error
	renameErr error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		nextChannelID: 100,
		names:         make(map[uint64]string),
		renames:       make(map[uint64]string),
		overwrites:    make(map[overwriteKey]overwriteValue),
	}
}

func (f *fakeProvisioner) CreateRoomChannel(ctx context.Context, name string, ownerID uint64) (uint64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextChannelID++
	f.created = append(f.created, name)
	f.names[f.nextChannelID] = name
	return f.nextChannelID, nil
}

func (f *fakeProvisioner) DeleteChannel(ctx context.Context, channelID uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeProvisioner) SetOverwrite(ctx context.Context, channelID uint64, target discord.OverwriteTarget, allow, deny int64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.overwrites[overwriteKey{channelID, target}] = overwriteValue{allow: allow, deny: deny}
	return nil
}

func (f *fakeProvisioner) ClearOverwrite(ctx context.Context, channelID uint64, target discord.OverwriteTarget) error {
	key := overwriteKey{channelID, target}
	delete(f.overwrites, key)
	f.clears = append(f.clears, key)
	return nil
}

func (f *fakeProvisioner) Rename(ctx context.Context, channelID uint64, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.names[channelID] = name
	f.renames[channelID] = name
	return nil
}

func (f *fakeProvisioner) ChannelName(ctx context.Context, channelID uint64) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.names[channelID], nil
}

// fakeRoles, RoleAssigner'ın kayıt tutan fake'i.
type fakeRoles struct {
	grants   map[uint64]uint64 // userID → roleID
	grantErr error
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{grants: make(map[uint64]uint64)}
}

func (f *fakeRoles) GrantRole(ctx context.Context, userID, roleID uint64, reason string) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.grants[userID] = roleID
	return nil
}

// fakeAlerts, AlertSender'ın kayıt tutan fake'i.
type fakeAlerts struct {
	messages []string
}

func (f *fakeAlerts) Send(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

// fakeMailer, EmailSender'ın kayıt tutan fake'i.
type fakeMailer struct {
	subjects []string
}

func (f *fakeMailer) SendIncident(ctx context.Context, subject, body string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

const (
	testEveryoneRole = uint64(9001)
	testMemberRole   = uint64(9002)
)

// harness, her test için taze fake seti + service kurar.
type harness struct {
	ownerships  *fakeOwnerships
	provisioner *fakeProvisioner
	roles       *fakeRoles
	alerts      *fakeAlerts
	mailer      *fakeMailer
	service     RoomService
}

func newHarness() *harness {
	h := &harness{
		ownerships:  newFakeOwnerships(),
		provisioner: newFakeProvisioner(),
		roles:       newFakeRoles(),
		alerts:      &fakeAlerts{},
		mailer:      &fakeMailer{},
	}
	h.service = NewRoomService(
		h.ownerships,
		h.provisioner,
		h.roles,
		h.alerts,
		h.mailer,
		testEveryoneRole,
		testMemberRole,
	)
	return h
}

// ─── Create saga ───

func TestCreateSuccess(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	const janeID = uint64(1001)

	channelID, err := h.service.Create(ctx, janeID, "Jane Doe")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(h.provisioner.created) != 1 || h.provisioner.created[0] != "room-janedoe" {
		t.Errorf("expected channel %q to be created, got %v", "room-janedoe", h.provisioner.created)
	}
	if got := h.ownerships.rows[janeID]; got != channelID {
		t.Errorf("ownership row = %d, want %d", got, channelID)
	}
	if got := h.roles.grants[janeID]; got != testMemberRole {
		t.Errorf("granted role = %d, want %d", got, testMemberRole)
	}
	if len(h.provisioner.deleted) != 0 {
		t.Errorf("no compensation expected, but channels %v were deleted", h.provisioner.deleted)
	}
}

func TestCreateProvisionFailureAbortsWithoutCompensation(t *testing.T) {
	h := newHarness()
	h.provisioner.createErr = fmt.Errorf("%w: category is full", pkg.ErrProvision)

	_, err := h.service.Create(context.Background(), 1001, "Jane Doe")
	if !errors.Is(err, pkg.ErrProvision) {
		t.Fatalf("expected ErrProvision, got %v", err)
	}

	// Hiçbir kaynak oluşmadı: satır yok, rol yok, silme çağrısı yok.
	if len(h.ownerships.rows) != 0 {
		t.Errorf("no ownership row expected, got %v", h.ownerships.rows)
	}
	if len(h.roles.grants) != 0 {
		t.Errorf("no role grant expected, got %v", h.roles.grants)
	}
	if len(h.provisioner.deleted) != 0 {
		t.Errorf("no delete expected, got %v", h.provisioner.deleted)
	}
}

func TestCreatePersistFailureDeletesChannel(t *testing.T) {
	h := newHarness()
	h.ownerships.insertErr = fmt.Errorf("%w: connection lost", pkg.ErrStore)

	_, err := h.service.Create(context.Background(), 1001, "Jane Doe")
	if !errors.Is(err, pkg.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}

	if len(h.provisioner.deleted) != 1 {
		t.Fatalf("expected compensating delete, got %v", h.provisioner.deleted)
	}
	if len(h.roles.grants) != 0 {
		t.Errorf("role must not be granted after persistence failure")
	}
}

// İkinci create: provisioning başarılı ama insert duplicate key'e çarpar →
// yeni kanal silinir, hata yüzeye çıkar, orijinal satır değişmez.
func TestCreateDuplicateLeavesOriginalRowIntact(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	const userID = uint64(1001)
	h.ownerships.rows[userID] = 42 // kullanıcının zaten odası var

	_, err := h.service.Create(ctx, userID, "Jane Doe")
	if !errors.Is(err, pkg.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}

	// Yeni provision edilen kanal compensate edildi.
	if len(h.provisioner.deleted) != 1 {
		t.Fatalf("expected the new channel to be deleted, got %v", h.provisioner.deleted)
	}
	// Orijinal satır aynen duruyor — user başına tek satır korunur.
	if got := h.ownerships.rows[userID]; got != 42 {
		t.Errorf("original row changed: got %d, want 42", got)
	}
	if len(h.ownerships.rows) != 1 {
		t.Errorf("expected exactly one row, got %d", len(h.ownerships.rows))
	}
	if len(h.roles.grants) != 0 {
		t.Errorf("role must not be granted")
	}
}

// Rol ataması başarısız: kanal silinir ama ownership satırı KALIR —
// bilinen boşluk aynen korunur ve operatör uyarılır.
func TestCreateRoleFailureLeavesDanglingRow(t *testing.T) {
	h := newHarness()
	h.roles.grantErr = fmt.Errorf("%w: missing permission hierarchy", pkg.ErrRole)

	const userID = uint64(1001)

	_, err := h.service.Create(context.Background(), userID, "Jane Doe")
	if !errors.Is(err, pkg.ErrRole) {
		t.Fatalf("expected ErrRole, got %v", err)
	}

	if len(h.provisioner.deleted) != 1 {
		t.Fatalf("expected compensating delete, got %v", h.provisioner.deleted)
	}

	// Satır, artık silinmiş kanalı gösteriyor.
	danglingChannel, exists := h.ownerships.rows[userID]
	if !exists {
		t.Fatal("ownership row must remain after role failure")
	}
	if danglingChannel != h.provisioner.deleted[0] {
		t.Errorf("row points at %d, deleted channel was %d", danglingChannel, h.provisioner.deleted[0])
	}

	// Operatör uyarısı gitti.
	if len(h.alerts.messages) != 1 {
		t.Errorf("expected one alert, got %d", len(h.alerts.messages))
	}
	if len(h.mailer.subjects) != 1 {
		t.Errorf("expected one incident email, got %d", len(h.mailer.subjects))
	}
}

// Compensation'ın kendisi başarısız: orijinal hata gölgelenmez,
// silme hatası zincire eklenir.
func TestCreateCompensationFailureChainsErrors(t *testing.T) {
	h := newHarness()
	h.ownerships.insertErr = fmt.Errorf("%w: disk full", pkg.ErrStore)
	h.provisioner.deleteErr = fmt.Errorf("%w: rate limited", pkg.ErrProvision)

	_, err := h.service.Create(context.Background(), 1001, "Jane Doe")

	var compErr *pkg.CompensationError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompensationError, got %T: %v", err, err)
	}

	// Her iki zincir de errors.Is ile erişilebilir olmalı.
	if !errors.Is(err, pkg.ErrStore) {
		t.Errorf("original ErrStore must remain reachable: %v", err)
	}
	if !errors.Is(err, pkg.ErrProvision) {
		t.Errorf("compensation ErrProvision must be chained: %v", err)
	}

	// Orphan kanal uyarısı gitti.
	if len(h.alerts.messages) != 1 {
		t.Errorf("expected one alert, got %d", len(h.alerts.messages))
	}
}

// ─── Türetilmiş operasyonlar ───

// Odası olmayan kullanıcı: tüm türetilmiş operasyonlar ErrNoRoom döner
// ve HİÇBİR platform mutasyonu yapılmaz.
func TestDerivedOpsWithoutRoom(t *testing.T) {
	ops := []struct {
		name string
		call func(s RoomService) error
	}{
		{"key create", func(s RoomService) error { return s.KeyCreate(context.Background(), 1001, 2002) }},
		{"key revoke", func(s RoomService) error { return s.KeyRevoke(context.Background(), 1001, 2002) }},
		{"open", func(s RoomService) error { return s.Open(context.Background(), 1001) }},
		{"close", func(s RoomService) error { return s.Close(context.Background(), 1001) }},
		{"reset name", func(s RoomService) error {
			_, err := s.ResetName(context.Background(), 1001, "Jane Doe")
			return err
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			h := newHarness()

			if err := op.call(h.service); !errors.Is(err, pkg.ErrNoRoom) {
				t.Fatalf("expected ErrNoRoom, got %v", err)
			}

			if len(h.provisioner.overwrites) != 0 || len(h.provisioner.clears) != 0 ||
				len(h.provisioner.renames) != 0 || len(h.provisioner.deleted) != 0 {
				t.Errorf("no platform mutation expected on lookup miss")
			}
		})
	}
}

func TestKeyCreateGrantsAccess(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42

	if err := h.service.KeyCreate(context.Background(), 1001, 2002); err != nil {
		t.Fatalf("KeyCreate failed: %v", err)
	}

	got := h.provisioner.overwrites[overwriteKey{42, discord.MemberTarget(2002)}]
	if got.allow != discord.PermsRoomAccess || got.deny != 0 {
		t.Errorf("guest overwrite = %+v, want allow view+connect", got)
	}
}

// Hiç key verilmemiş misafire revoke: yine de başarılıdır ve explicit
// deny overwrite yazar.
func TestKeyRevokeWithoutPriorGrant(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42

	if err := h.service.KeyRevoke(context.Background(), 1001, 2002); err != nil {
		t.Fatalf("KeyRevoke failed: %v", err)
	}

	got := h.provisioner.overwrites[overwriteKey{42, discord.MemberTarget(2002)}]
	if got.deny != discord.PermsRoomAccess || got.allow != 0 {
		t.Errorf("guest overwrite = %+v, want deny view+connect", got)
	}
}

// Close sonra open: everyone overwrite'ı allow'a döner, deny'dan iz kalmaz.
func TestCloseThenOpenRestoresAccess(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42
	ctx := context.Background()

	if err := h.service.Close(ctx, 1001); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	everyoneKey := overwriteKey{42, discord.RoleTarget(testEveryoneRole)}

	// Close, clear-then-set yapmalı.
	if len(h.provisioner.clears) != 1 || h.provisioner.clears[0] != everyoneKey {
		t.Fatalf("expected everyone overwrite to be cleared first, got %v", h.provisioner.clears)
	}
	if got := h.provisioner.overwrites[everyoneKey]; got.deny != discord.PermsRoomAccess {
		t.Fatalf("after close, everyone overwrite = %+v, want deny view+connect", got)
	}

	if err := h.service.Open(ctx, 1001); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got := h.provisioner.overwrites[everyoneKey]
	if got.allow != discord.PermsRoomAccess || got.deny != 0 {
		t.Errorf("after open, everyone overwrite = %+v, want allow view+connect with no deny", got)
	}
}

// ─── Reset operasyonları ───

// Ad zaten canonical: rename çağrısı YAPILMAZ.
func TestResetNameIsNoopWhenCanonical(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42
	h.provisioner.names[42] = "room-janedoe"

	renamed, err := h.service.ResetName(context.Background(), 1001, "Jane Doe")
	if err != nil {
		t.Fatalf("ResetName failed: %v", err)
	}
	if renamed {
		t.Error("expected no-op, but a rename was reported")
	}
	if len(h.provisioner.renames) != 0 {
		t.Errorf("no rename call expected, got %v", h.provisioner.renames)
	}
}

func TestResetNameRenamesDriftedChannel(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42
	h.provisioner.names[42] = "jane-s-lair"

	renamed, err := h.service.ResetName(context.Background(), 1001, "Jane Doe")
	if err != nil {
		t.Fatalf("ResetName failed: %v", err)
	}
	if !renamed {
		t.Error("expected a rename to be reported")
	}
	if got := h.provisioner.renames[42]; got != "room-janedoe" {
		t.Errorf("renamed to %q, want %q", got, "room-janedoe")
	}
}

func TestResetRoomIDOverwritesMapping(t *testing.T) {
	h := newHarness()
	h.ownerships.rows[1001] = 42

	// Kanal varlığı doğrulanmaz — var olmayan bir ID bile yazılabilir.
	if err := h.service.ResetRoomID(context.Background(), 1001, 777); err != nil {
		t.Fatalf("ResetRoomID failed: %v", err)
	}
	if got := h.ownerships.rows[1001]; got != 777 {
		t.Errorf("row = %d, want 777", got)
	}
}

func TestResetRoomIDWithoutRow(t *testing.T) {
	h := newHarness()

	err := h.service.ResetRoomID(context.Background(), 1001, 777)
	if !errors.Is(err, pkg.ErrNoRoom) {
		t.Fatalf("expected ErrNoRoom for missing row, got %v", err)
	}
}
