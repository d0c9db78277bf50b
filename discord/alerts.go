package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// AlertSender, operatör uyarılarını alerts kanalına gönderir.
//
// Buraya düşen mesajlar manuel müdahale gerektiren tutarsızlıklardır:
// compensation hatası (orphan kanal) veya rol ataması sonrası askıda kalan
// ownership satırı. Normal komut hataları kullanıcıya ephemeral reply
// olarak döner, alerts kanalını kirletmez.
type AlertSender interface {
	Send(ctx context.Context, message string) error
}

// channelAlertSender, AlertSender'ın discordgo implementasyonu —
// config'deki sabit alerts kanalına yazar.
type channelAlertSender struct {
	session   *discordgo.Session
	channelID uint64
}

// NewChannelAlertSender, constructor — interface döner.
func NewChannelAlertSender(session *discordgo.Session, channelID uint64) AlertSender {
	return &channelAlertSender{session: session, channelID: channelID}
}

func (a *channelAlertSender) Send(ctx context.Context, message string) error {
	_, err := a.session.ChannelMessageSend(fmtID(a.channelID), message, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}
