// Package main, otelbot'un giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar ile)
//  3. Repository'yi oluştur
//  4. Discord session'ı kur
//  5. Platform adaptörlerini oluştur (provisioner, role assigner, alerts)
//  6. Operatör mail sender'ını seç (Resend veya noop)
//  7. RoomService'i oluştur
//  8. Handler'ı oluştur, komutları kaydet
//  9. Health server'ı başlat
// 10. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/akinalp/otelbot/config"
	"github.com/akinalp/otelbot/database"
	"github.com/akinalp/otelbot/discord"
	"github.com/akinalp/otelbot/handlers"
	"github.com/akinalp/otelbot/health"
	"github.com/akinalp/otelbot/pkg/email"
	"github.com/akinalp/otelbot/pkg/ratelimit"
	"github.com/akinalp/otelbot/repository"
	"github.com/akinalp/otelbot/services"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] otelbot starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (guild=%d)", cfg.Discord.GuildID)

	// ─── 2. Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository ───
	ownershipRepo := repository.NewSQLiteOwnershipRepo(db.Conn)

	// ─── 4. Discord Session ───
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("[main] failed to create discord session: %v", err)
	}

	// Slash command'lar için IntentsGuilds yeterli — mesaj içeriği gerekmez.
	session.Identify.Intents = discordgo.IntentsGuilds

	// ─── 5. Platform Adaptörleri ───
	provisioner := discord.NewSessionProvisioner(
		session,
		cfg.Discord.GuildID,
		cfg.Discord.CategoryRooms,
		cfg.Discord.RoleEveryone,
	)
	roleAssigner := discord.NewSessionRoleAssigner(session, cfg.Discord.GuildID)
	alertSender := discord.NewChannelAlertSender(session, cfg.Discord.ChannelAlerts)

	// ─── 6. Operatör Mail ───
	// RESEND_API_KEY boşsa mail devre dışı — noop wire edilir, service
	// katmanı "mail açık mı" kontrolü yapmak zorunda kalmaz.
	var mailer email.EmailSender = email.Noop{}
	if cfg.Alert.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.Alert.ResendAPIKey, cfg.Alert.EmailFrom, cfg.Alert.EmailTo)
		log.Println("[main] operator incident email enabled")
	}

	// ─── 7. Service Layer ───
	roomService := services.NewRoomService(
		ownershipRepo,
		provisioner,
		roleAssigner,
		alertSender,
		mailer,
		cfg.Discord.RoleEveryone,
		cfg.Discord.RoleHotelMember,
	)

	// ─── 8. Handler Layer ───
	limiter := ratelimit.NewCommandRateLimiter(10, time.Minute)
	handler := handlers.New(roomService, &cfg.Discord, limiter)

	session.AddHandler(handler.OnInteractionCreate)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("[main] logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})

	if err := session.Open(); err != nil {
		log.Fatalf("[main] failed to open gateway connection: %v", err)
	}
	defer session.Close()

	if err := handler.Register(session); err != nil {
		log.Fatalf("[main] failed to register commands: %v", err)
	}

	// ─── 9. Health Server ───
	var healthServer *health.Server
	if cfg.Health.Addr != "" {
		healthServer = health.NewServer(cfg.Health.Addr, func() bool {
			return session.DataReady
		})
		healthServer.Start()
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	log.Println("[main] bot is running — SIGINT/SIGTERM to exit")
	<-done
	log.Println("[main] shutting down...")

	// Önce komutları sil — guild'de hayalet komut kalmasın.
	handler.Unregister(session)
	limiter.Stop()
	if healthServer != nil {
		healthServer.Shutdown()
	}

	log.Println("[main] stopped gracefully")
}
