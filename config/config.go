// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config bir kez yüklenir, sonrasında immutable'dır — her katman kendi
// ihtiyacı olan alt struct'ı constructor parametresi olarak alır.
// Global mutable state YOK.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — Single Responsibility: her struct tek bir concern'ü temsil eder.
type Config struct {
	Discord  DiscordConfig
	Database DatabaseConfig
	Health   HealthConfig
	Alert    AlertConfig
}

// DiscordConfig, bot'un bağlanacağı guild ve oda altyapısının sabit ID'leri.
//
// Snowflake'ler Discord tarafında unsigned 64-bit integer'dır.
// Burada uint64 olarak taşınır; signed temsil sadece store sınırında
// (repository paketi) ortaya çıkar.
type DiscordConfig struct {
	Token           string   // Bot token — GİZLİ TUTULMALI
	GuildID         uint64   // Bot'un çalıştığı tek guild
	RoleEveryone    uint64   // @everyone rolü — open/close bu overwrite'ı hedefler
	RoleHotelMember uint64   // Odası olan üyelere verilen rol
	CategoryRooms   uint64   // Oda kanallarının açılacağı kategori
	ChannelAlerts   uint64   // Operatör uyarılarının gönderileceği kanal
	OwnerIDs        []uint64 // /room reset grubunu kullanabilen operatörler
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/otelbot.db)
}

// HealthConfig, deploy probe'ları için küçük HTTP endpoint'in ayarları.
type HealthConfig struct {
	Addr string // Dinlenecek adres (ör: 0.0.0.0:9091), boşsa endpoint kapalı
}

// AlertConfig, compensation hatalarında operatöre atılan email ayarları.
// APIKey boşsa email gönderimi devre dışıdır — alerts kanalı yine çalışır.
type AlertConfig struct {
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	token := getEnv("DISCORD_TOKEN", "")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable is required")
	}

	guildID, err := requiredSnowflake("DISCORD_GUILD")
	if err != nil {
		return nil, err
	}
	roleEveryone, err := requiredSnowflake("DISCORD_ROLE_EVERYONE")
	if err != nil {
		return nil, err
	}
	roleHotelMember, err := requiredSnowflake("DISCORD_ROLE_HOTEL_MEMBER")
	if err != nil {
		return nil, err
	}
	categoryRooms, err := requiredSnowflake("DISCORD_CATEGORY_ROOMS")
	if err != nil {
		return nil, err
	}
	channelAlerts, err := requiredSnowflake("DISCORD_CHANNEL_ALERTS")
	if err != nil {
		return nil, err
	}

	owners, err := parseOwnerIDs(getEnv("DISCORD_OWNER_IDS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Discord: DiscordConfig{
			Token:           token,
			GuildID:         guildID,
			RoleEveryone:    roleEveryone,
			RoleHotelMember: roleHotelMember,
			CategoryRooms:   categoryRooms,
			ChannelAlerts:   channelAlerts,
			OwnerIDs:        owners,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/otelbot.db"),
		},
		Health: HealthConfig{
			Addr: getEnv("HEALTH_ADDR", ""),
		},
		Alert: AlertConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			EmailFrom:    getEnv("ALERT_EMAIL_FROM", ""),
			EmailTo:      getEnv("ALERT_EMAIL_TO", ""),
		},
	}

	return cfg, nil
}

// IsOwner, verilen kullanıcının operatör listesinde olup olmadığını döner.
func (c *DiscordConfig) IsOwner(userID uint64) bool {
	for _, id := range c.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// requiredSnowflake, zorunlu bir snowflake env variable'ını okuyup parse eder.
func requiredSnowflake(key string) (uint64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return 0, fmt.Errorf("%s environment variable is required", key)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

// parseOwnerIDs, virgülle ayrılmış snowflake listesini parse eder.
// Boş string geçerlidir — reset komutları o zaman kimseye açık olmaz.
func parseOwnerIDs(raw string) ([]uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DISCORD_OWNER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
