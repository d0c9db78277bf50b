package handlers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// handlePing — /ping. Bağlantı sağlığını hızlıca doğrular.
func (h *Handler) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.respond(s, i, "Pong!")
}

// handleUptime — /uptime. Startup timestamp'ini Discord'un zaman
// formatlamasıyla gönderir: <t:ts:F> tam tarih, <t:ts:R> göreli süre.
func (h *Handler) handleUptime(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ts := h.startedAt.Unix()
	h.respond(s, i, fmt.Sprintf("The bot has been running since <t:%d:F> (<t:%d:R>)", ts, ts))
}
