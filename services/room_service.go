// Package services, iş mantığı katmanıdır.
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/otelbot/discord"
	"github.com/akinalp/otelbot/models"
	"github.com/akinalp/otelbot/pkg"
	"github.com/akinalp/otelbot/pkg/email"
	"github.com/akinalp/otelbot/repository"
)

// callTimeout, her bir dış çağrı (Discord REST, store query) için üst sınır.
// Timeout, o çağrının sıradan hatasıyla aynı yoldan işlenir — compensation
// dahil. Workflow genelinde ayrı bir deadline yoktur; adımlar sıralıdır.
const callTimeout = 10 * time.Second

// RoomService, oda sahipliği ve erişim kontrolü iş mantığı interface'i.
//
// Create çok adımlı bir saga'dır: kanal oluştur → ownership satırı yaz →
// rol ata. İki dış sistem (Discord, SQLite) ortak transaction boundary
// paylaşmadığı için rollback yerine compensation kullanılır: sonraki bir
// adım başarısız olursa oluşturulan kanal silinir.
//
// Geri kalan operasyonlar hep aynı kalıbı izler: ownership store'dan kanalı
// çöz (yoksa pkg.ErrNoRoom), sonra platformda permission mutasyonu yap.
type RoomService interface {
	// Create, kullanıcıya yeni bir oda açar ve kanal ID'sini döner.
	//
	// Üç adımlı saga:
	//  1. Provision — canonical isimle voice kanal oluştur. Hata → hemen dön,
	//     compensation gerekmez (hiçbir şey oluşmadı).
	//  2. Persist — ownership satırını ekle. No-op veya store hatası →
	//     kanalı sil, persistence hatasını raporla. Silme de başarısız olursa
	//     CompensationError orijinal hatayı zincirler, gölgelemez.
	//  3. Rol — hotel member rolünü ata. Hata → kanalı sil ama ownership
	//     satırı KALIR (bilinen boşluk, bkz. DESIGN.md) — operatör alert'i
	//     gönderilir, onarım /room reset room_id iledir.
	//
	// Retry yok: herhangi bir adımın hatası o invocation için terminaldir,
	// caller create'i baştan çağırır. Aynı kullanıcı için yarışan iki create
	// store'un primary key'inde çözülür — ikincisi sıradan
	// compensate-and-fail yoluna düşer, özel bir race handling yoktur.
	Create(ctx context.Context, userID uint64, username string) (uint64, error)

	// KeyCreate, misafire odayı görme + bağlanma izni verir.
	KeyCreate(ctx context.Context, subjectID, guestID uint64) error

	// KeyRevoke, misafir için explicit deny overwrite yazar. Misafirin daha
	// önce key almış olması gerekmez — deny koşulsuzdur.
	KeyRevoke(ctx context.Context, subjectID, guestID uint64) error

	// Open, odanın kapısını açar: @everyone için allow view+connect.
	Open(ctx context.Context, subjectID uint64) error

	// Close, odanın kapısını kapatır: @everyone overwrite'ını temizle,
	// sonra deny view+connect yaz. İki ayrı çağrı bilinçlidir — platformun
	// kısmi overwrite semantiği explicit clear olmadan garanti değildir.
	Close(ctx context.Context, subjectID uint64) error

	// ResetName, kanal adını canonical isme döndürür. Ad zaten canonical ise
	// rename çağrısı YAPILMAZ (idempotent no-op); dönüş değeri rename'in
	// gerçekleşip gerçekleşmediğini söyler.
	ResetName(ctx context.Context, userID uint64, username string) (bool, error)

	// ResetRoomID, stored eşlemeyi koşulsuz overwrite eder — operatör escape
	// hatch'i. Kanal varlığı doğrulanmaz (karar: DESIGN.md); askıda kalan
	// ownership satırlarının onarım yolu budur.
	ResetRoomID(ctx context.Context, subjectID, channelID uint64) error
}

// roomService, RoomService'in implementasyonu.
// Tüm dependency'ler interface olarak tutulur (Dependency Inversion) —
// testlerde fake'lerle değiştirilir.
type roomService struct {
	ownerships repository.OwnershipRepository
	channels   discord.ChannelProvisioner
	roles      discord.RoleAssigner
	alerts     discord.AlertSender
	mailer     email.EmailSender

	everyoneRole    uint64
	hotelMemberRole uint64
}

// NewRoomService, constructor — interface döner.
func NewRoomService(
	ownerships repository.OwnershipRepository,
	channels discord.ChannelProvisioner,
	roles discord.RoleAssigner,
	alerts discord.AlertSender,
	mailer email.EmailSender,
	everyoneRole uint64,
	hotelMemberRole uint64,
) RoomService {
	return &roomService{
		ownerships:      ownerships,
		channels:        channels,
		roles:           roles,
		alerts:          alerts,
		mailer:          mailer,
		everyoneRole:    everyoneRole,
		hotelMemberRole: hotelMemberRole,
	}
}

func (s *roomService) Create(ctx context.Context, userID uint64, username string) (uint64, error) {
	sagaID := uuid.NewString()
	name := models.CanonicalRoomName(username)

	// ─── 1. Provision ───
	log.Printf("[room] saga=%s creating channel %q for user %d", sagaID, name, userID)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	channelID, err := s.channels.CreateRoomChannel(callCtx, name, userID)
	cancel()
	if err != nil {
		// Hiçbir kaynak oluşmadı — compensation gerekmez.
		return 0, err
	}

	// ─── 2. Persist ───
	callCtx, cancel = context.WithTimeout(ctx, callTimeout)
	err = s.ownerships.Insert(callCtx, userID, channelID)
	cancel()
	if err != nil {
		log.Printf("[room] saga=%s persistence failed, compensating: %v", sagaID, err)
		return 0, s.compensate(ctx, sagaID, userID, channelID, err, false)
	}

	// ─── 3. Rol ───
	callCtx, cancel = context.WithTimeout(ctx, callTimeout)
	err = s.roles.GrantRole(callCtx, userID, s.hotelMemberRole, "Automatically assigned role to member.")
	cancel()
	if err != nil {
		log.Printf("[room] saga=%s role grant failed, compensating: %v", sagaID, err)
		return 0, s.compensate(ctx, sagaID, userID, channelID, err, true)
	}

	log.Printf("[room] saga=%s room %d created for user %d", sagaID, channelID, userID)
	return channelID, nil
}

// compensate, oluşturulmuş kanalı geri alır ve doğru hatayı raporlar.
//
// cause: saga'yı durduran orijinal hata — raporlanan hata HER ZAMAN budur.
// rowPersisted: ownership satırı yazıldıktan sonra mı başarısız olduk?
// Satır silinMEZ (bilinen boşluk) — bunun yerine operatör uyarılır, onarım
// ResetRoomID'dir.
func (s *roomService) compensate(ctx context.Context, sagaID string, userID, channelID uint64, cause error, rowPersisted bool) error {
	// Compensation, invocation ctx'i iptal edilmiş olsa bile koşmalı —
	// aksi halde timeout olan bir adım orphan kanal bırakır.
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), callTimeout)
	defer cancel()

	if delErr := s.channels.DeleteChannel(compCtx, channelID); delErr != nil {
		// Silme de başarısız: orphan kanal kaldı. Orijinal hata gölgelenmez,
		// compensation hatası zincire eklenir.
		s.notifyOperators(compCtx, "orphaned room channel",
			fmt.Sprintf("saga=%s user=%d channel=%d: create failed (%v) and the compensating delete also failed (%v). The channel must be deleted manually.",
				sagaID, userID, channelID, cause, delErr))
		return &pkg.CompensationError{Cause: cause, CompensateErr: delErr}
	}

	if rowPersisted {
		// Kanal silindi ama ownership satırı artık silinmiş bir kanalı
		// gösteriyor — bilinen, onarılabilir tutarsızlık.
		s.notifyOperators(compCtx, "dangling room ownership",
			fmt.Sprintf("saga=%s user=%d: role grant failed (%v); channel %d was deleted but the ownership row remains. Repair with /room reset room_id.",
				sagaID, userID, cause, channelID))
	}

	return cause
}

// notifyOperators, alerts kanalına ve (yapılandırılmışsa) operatör mail'ine
// yazar. Best-effort: uyarının kendisi hata üretirse sadece log'lanır —
// saga'nın raporladığı hatayı asla değiştirmez.
func (s *roomService) notifyOperators(ctx context.Context, subject, body string) {
	if err := s.alerts.Send(ctx, fmt.Sprintf("⚠️ %s — %s", subject, body)); err != nil {
		log.Printf("[room] failed to send alert: %v", err)
	}
	if err := s.mailer.SendIncident(ctx, subject, body); err != nil {
		log.Printf("[room] failed to send incident email: %v", err)
	}
}

// resolveChannel, kullanıcının oda kanalını store'dan çözer.
// Tüm türetilmiş operasyonların ilk adımı budur; satır yoksa pkg.ErrNoRoom
// döner ve HİÇBİR platform mutasyonu yapılmaz.
func (s *roomService) resolveChannel(ctx context.Context, userID uint64) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	ownership, err := s.ownerships.Get(callCtx, userID)
	if err != nil {
		return 0, err
	}
	return ownership.ChannelID, nil
}

func (s *roomService) KeyCreate(ctx context.Context, subjectID, guestID uint64) error {
	channelID, err := s.resolveChannel(ctx, subjectID)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.channels.SetOverwrite(callCtx, channelID, discord.MemberTarget(guestID), discord.PermsRoomAccess, 0)
}

func (s *roomService) KeyRevoke(ctx context.Context, subjectID, guestID uint64) error {
	channelID, err := s.resolveChannel(ctx, subjectID)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.channels.SetOverwrite(callCtx, channelID, discord.MemberTarget(guestID), 0, discord.PermsRoomAccess)
}

func (s *roomService) Open(ctx context.Context, subjectID uint64) error {
	channelID, err := s.resolveChannel(ctx, subjectID)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.channels.SetOverwrite(callCtx, channelID, discord.RoleTarget(s.everyoneRole), discord.PermsRoomAccess, 0)
}

func (s *roomService) Close(ctx context.Context, subjectID uint64) error {
	channelID, err := s.resolveChannel(ctx, subjectID)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	if err := s.channels.ClearOverwrite(callCtx, channelID, discord.RoleTarget(s.everyoneRole)); err != nil {
		cancel()
		return err
	}
	cancel()

	callCtx, cancel = context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.channels.SetOverwrite(callCtx, channelID, discord.RoleTarget(s.everyoneRole), 0, discord.PermsRoomAccess)
}

func (s *roomService) ResetName(ctx context.Context, userID uint64, username string) (bool, error) {
	channelID, err := s.resolveChannel(ctx, userID)
	if err != nil {
		return false, err
	}

	expected := models.CanonicalRoomName(username)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	current, err := s.channels.ChannelName(callCtx, channelID)
	cancel()
	if err != nil {
		return false, err
	}

	if current == expected {
		// Ad zaten canonical — rename çağrısı yapılmaz.
		return false, nil
	}

	callCtx, cancel = context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := s.channels.Rename(callCtx, channelID, expected); err != nil {
		return false, err
	}

	log.Printf("[room] channel %d renamed to %q", channelID, expected)
	return true, nil
}

func (s *roomService) ResetRoomID(ctx context.Context, subjectID, channelID uint64) error {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := s.ownerships.UpdateChannelID(callCtx, subjectID, channelID); err != nil {
		return err
	}

	log.Printf("[room] ownership for user %d manually reset to channel %d", subjectID, channelID)
	return nil
}
