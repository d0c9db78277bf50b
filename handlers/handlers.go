// Package handlers, komut yüzeyidir: slash command tanımları, interaction
// dispatch, argüman parsing ve service hatalarının kullanıcı mesajlarına
// çevrilmesi. HTTP handler katmanının bot karşılığıdır — transport
// girdisini service çağrısına, service hatasını yanıta çevirir, iş mantığı
// içermez.
package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/akinalp/otelbot/config"
	"github.com/akinalp/otelbot/pkg"
	"github.com/akinalp/otelbot/pkg/ratelimit"
	"github.com/akinalp/otelbot/services"
)

// Handler, tüm slash command'ların dispatch noktası.
type Handler struct {
	rooms   services.RoomService
	cfg     *config.DiscordConfig
	limiter *ratelimit.CommandRateLimiter

	startedAt time.Time // /uptime için

	// registered, startup'ta oluşturulan komutlar — shutdown'da silinir.
	registered []*discordgo.ApplicationCommand
}

// New, constructor.
func New(rooms services.RoomService, cfg *config.DiscordConfig, limiter *ratelimit.CommandRateLimiter) *Handler {
	return &Handler{
		rooms:     rooms,
		cfg:       cfg,
		limiter:   limiter,
		startedAt: time.Now(),
	}
}

// commandDefinitions, bot'un sunduğu slash command'lar.
// Guild-scoped register edilir — global komutların aksine anında görünür.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Ping!",
		},
		{
			Name:        "uptime",
			Description: "Tells for how long the bot has been up for.",
		},
		{
			Name:        "room",
			Description: "Manage your personal voice room.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new room for a guest.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "User who will get a room. Defaults to you.",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "open",
					Description: "Open your room's door, allowing everyone to view and connect.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "close",
					Description: "Close your room's door, denying everyone from viewing and connecting.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "key",
					Description: "Manage keys to your room.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "create",
							Description: "Create a key for your room so that your friends can visit you.",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User that will get a key.",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "revoke",
							Description: "Revoke a key for an existing room.",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User that will lose their key.",
									Required:    true,
								},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "reset",
					Description: "Operator-only repair commands.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "name",
							Description: "Resets the name of a room back to the canonical one.",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User whose room's name will be reset. Defaults to you.",
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "room_id",
							Description: "Manually set the stored room channel ID for a user. Use carefully!",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User whose room's ID will be reset.",
									Required:    true,
								},
								{
									Type:        discordgo.ApplicationCommandOptionString,
									Name:        "channel_id",
									Description: "ID of the channel.",
									Required:    true,
								},
							},
						},
					},
				},
			},
		},
	}
}

// Register, komutları guild'e kaydeder. Bot her startup'ta komutları
// yeniden oluşturur; Unregister shutdown'da temizler.
func (h *Handler) Register(s *discordgo.Session) error {
	appID := s.State.User.ID
	guildID := strconv.FormatUint(h.cfg.GuildID, 10)

	for _, def := range commandDefinitions() {
		cmd, err := s.ApplicationCommandCreate(appID, guildID, def)
		if err != nil {
			return fmt.Errorf("failed to register command %q: %w", def.Name, err)
		}
		h.registered = append(h.registered, cmd)
	}

	log.Printf("[handlers] %d commands registered", len(h.registered))
	return nil
}

// Unregister, startup'ta kaydedilen komutları siler (graceful shutdown).
func (h *Handler) Unregister(s *discordgo.Session) {
	appID := s.State.User.ID
	guildID := strconv.FormatUint(h.cfg.GuildID, 10)

	for _, cmd := range h.registered {
		if err := s.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			log.Printf("[handlers] failed to delete command %q: %v", cmd.Name, err)
		}
	}
}

// OnInteractionCreate, discordgo'nun event callback'i — dispatch noktası.
//
// Her invocation bağımsız bir iş birimidir; paylaşılan state sadece
// connection pool'lardır (store, Discord client) ve ikisi de thread-safe'dir.
// Orchestrator seviyesinde lock YOKTUR — aynı kullanıcı için yarışan iki
// create, store'un primary key'inde çözülür.
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	// Tüm oda komutları guild context'i gerektirir.
	if i.Member == nil || i.Member.User == nil {
		h.respond(s, i, renderError(pkg.ErrNoGuild))
		return
	}

	invoker, err := strconv.ParseUint(i.Member.User.ID, 10, 64)
	if err != nil {
		log.Printf("[handlers] malformed invoker id %q: %v", i.Member.User.ID, err)
		return
	}

	if !h.limiter.Allow(invoker) {
		h.respond(s, i, "You're sending commands too fast. Take a breath and try again.")
		return
	}

	data := i.ApplicationCommandData()
	log.Printf("[handlers] executing command /%s (user=%d)", data.Name, invoker)

	switch data.Name {
	case "ping":
		h.handlePing(s, i)
	case "uptime":
		h.handleUptime(s, i)
	case "room":
		h.handleRoom(s, i, invoker)
	default:
		log.Printf("[handlers] unknown command %q", data.Name)
	}
}

// respond, ephemeral bir yanıt gönderir — sadece komutu çalıştıran görür.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[handlers] failed to respond to interaction: %v", err)
	}
}

// defer + followup: oda komutları birden fazla REST çağrısı yapar ve
// Discord'un 3 saniyelik ilk yanıt limitini aşabilir. Önce "düşünüyor..."
// state'ine geçilir, iş bitince followup ile asıl yanıt gönderilir.
func (h *Handler) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[handlers] failed to defer interaction: %v", err)
		return false
	}
	return true
}

func (h *Handler) followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("[handlers] failed to send followup: %v", err)
	}
}

// renderError, service hatasını kullanıcıya gösterilecek mesaja çevirir.
//
// pkg.ErrNoRoom beklenen bir durumdur ve yardımcı bir mesajla render edilir;
// geri kalan her kind generic bir hata bildirimidir — diagnostik kullanıcıya
// değil operatör log'una gider.
func renderError(err error) string {
	switch {
	case errors.Is(err, pkg.ErrNoRoom):
		return "You don't have a room. Create one with `/room create`."
	case errors.Is(err, pkg.ErrNoGuild):
		return "This command can only be used in a server."
	default:
		log.Printf("[handlers] command failed: %v", err)
		return "Something went wrong while handling your command. The incident has been logged."
	}
}
