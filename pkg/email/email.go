// Package email, operatör uyarı mail'leri için soyutlama katmanı sağlar.
//
// EmailSender interface'i ile gönderim detayları soyutlanır (Dependency
// Inversion). Şu anki implementasyon Resend API kullanır; farklı bir
// sağlayıcıya geçmek için yeni bir implementasyon yazıp constructor'da
// değiştirmek yeterli.
//
// Bu mail'ler SADECE manuel müdahale gerektiren durumlarda gider:
// bir compensation adımı başarısız olduğunda (orphan kanal) veya role
// ataması başarısız olup ownership satırı askıda kaldığında. Normal
// komut hataları mail tetiklemez — onlar alerts kanalına düşer.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender, operatör uyarı mail'i gönderimi için interface.
type EmailSender interface {
	// SendIncident, manuel müdahale gerektiren bir tutarsızlığı operatöre bildirir.
	// subject kısa bir özet, body müdahale için gereken detaylardır
	// (kullanıcı/kanal ID'leri, orijinal hata).
	SendIncident(ctx context.Context, subject, body string) error
}

// resendSender, Resend API ile mail gönderen EmailSender implementasyonu.
type resendSender struct {
	client *resend.Client
	from   string // Gönderici adresi — Resend'de doğrulanmış domain altında olmalı
	to     string // Operatör adresi
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
func NewResendSender(apiKey, from, to string) EmailSender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

// SendIncident, tutarsızlık detaylarını düz metin olarak mail'ler.
// HTML şablonuna gerek yok — alıcı bir operatör, içerik ID ve hata metni.
func (s *resendSender) SendIncident(ctx context.Context, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{s.to},
		Subject: fmt.Sprintf("[otelbot] %s", subject),
		Text:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send incident email: %w", err)
	}

	return nil
}

// Noop, mail gönderimi devre dışıyken kullanılan implementasyon.
// RESEND_API_KEY boşsa main.go bunu wire eder — service katmanı
// "mail açık mı" kontrolü yapmak zorunda kalmaz.
type Noop struct{}

func (Noop) SendIncident(ctx context.Context, subject, body string) error { return nil }
