// Package pkg, projede paylaşılan domain-level error tanımlarını barındırır.
//
// Sentinel error'lar errors.Is ile eşleşir:
//
//	if errors.Is(err, pkg.ErrNoRoom) { ... }
//
// Handler katmanı bu error kind'larını kullanıcıya gösterilecek mesajlara
// map'ler: ErrNoRoom zararsız bir "odan yok" mesajıdır, geri kalan her şey
// generic bir hata bildirimi + operatör log'udur.
package pkg

import (
	"errors"
	"fmt"
)

// Domain-level error'lar.
//
// Service katmanı dış sistemlerden gelen hataları bu sentinel'lara
// %w ile sarar; böylece caller hem kind'ı (errors.Is) hem orijinal
// diagnostiği (err.Error()) görebilir.
var (
	// ErrNoRoom — kullanıcının kayıtlı odası yok. BEKLENEN bir durumdur,
	// transport/store hatası DEĞİLDİR; handler bunu nazik bir mesajla render eder.
	ErrNoRoom = errors.New("user does not have a room")

	// ErrNoGuild — komut bir guild context'i dışında çağrıldı.
	ErrNoGuild = errors.New("can only be called in a server")

	// ErrProvision — kanal oluşturma/silme/düzenleme platform tarafında başarısız.
	ErrProvision = errors.New("channel provisioning failed")

	// ErrStore — ownership store query/bağlantı hatası.
	ErrStore = errors.New("ownership store failure")

	// ErrRole — rol atama platform tarafında başarısız.
	ErrRole = errors.New("role assignment failed")
)

// CompensationError, bir rollback adımının KENDİSİNİN başarısız olduğunu taşır.
//
// Kritik kural: compensation hatası orijinal hatayı ASLA gölgelememeli.
// Cause her zaman saga'yı durduran asıl hatadır; CompensateErr, geri alma
// denemesinin (kanal silme) hatasıdır. Unwrap() []error sayesinde
// errors.Is her iki zincirde de eşleşir.
type CompensationError struct {
	Cause         error // saga'yı durduran orijinal hata
	CompensateErr error // geri alma adımının hatası
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%v (compensation also failed: %v)", e.Cause, e.CompensateErr)
}

// Unwrap, hem orijinal hatayı hem compensation hatasını zincire ekler.
// Go 1.20+ multi-error unwrapping: errors.Is/As ikisini de gezer.
func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.CompensateErr}
}
