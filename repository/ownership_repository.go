// Package repository, kalıcı veri erişim katmanıdır.
// Her repository bir interface + SQLite implementasyonu çiftidir.
package repository

import (
	"context"

	"github.com/akinalp/otelbot/models"
)

// OwnershipRepository, kullanıcı → oda kanalı eşlemesinin data access interface'i.
//
// "Kullanıcının odası var mı, hangisi" sorusunun tek source of truth'u budur.
// Uniqueness (kullanıcı başına en fazla bir satır) burada, user_id primary
// key'i ile enforce edilir — orchestrator ayrıca lock tutmaz.
type OwnershipRepository interface {
	// Get, kullanıcının ownership kaydını döner.
	// Satır yoksa pkg.ErrNoRoom döner — bu bir hata DEĞİL, beklenen durumdur
	// ve transport/query hatasından (pkg.ErrStore sarmalı) ayırt edilebilir.
	Get(ctx context.Context, userID uint64) (*models.RoomOwnership, error)

	// Insert, tam olarak bir ownership satırı oluşturmayı dener.
	// Üç sonucu ayırt eder:
	//   - başarı: tam bir satır eklendi, nil döner
	//   - no-op: sıfır satır etkilendi (ör. çakışan key) → pkg.ErrStore sarmalı hata
	//   - query hatası (bağlantı, constraint ihlali) → pkg.ErrStore sarmalı hata
	// Son iki durumda caller, oluşturduğu kanalı compensate etmek (silmek)
	// ZORUNDADIR; mesajlar diagnostik için farklıdır.
	Insert(ctx context.Context, userID, channelID uint64) error

	// UpdateChannelID, eşlemeyi koşulsuz overwrite eder (operatör reset yolu).
	// Kanal varlığı doğrulanmaz. Kullanıcının satırı yoksa UPDATE sıfır satır
	// etkiler ve pkg.ErrNoRoom döner — sessiz no-op yerine görünür hata
	// (karar: DESIGN.md).
	UpdateChannelID(ctx context.Context, userID, channelID uint64) error
}
