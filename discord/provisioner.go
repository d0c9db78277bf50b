package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/akinalp/otelbot/pkg"
)

// ChannelProvisioner, oda kanallarının platform tarafındaki yaşam döngüsünü yönetir:
// oluşturma, silme, permission overwrite düzenleme, rename.
//
// Tüm operasyonlar ctx'e saygı duyar — service katmanı her dış çağrıya
// bounded timeout verir; timeout o çağrının sıradan hatası gibi davranır.
type ChannelProvisioner interface {
	// CreateRoomChannel, rooms kategorisinde NSFW işaretli bir voice kanal
	// oluşturur. Kanal tam olarak iki baseline overwrite ile doğar:
	// sahibine allow-all, @everyone rolüne deny view+connect.
	// Dönen değer yeni kanalın snowflake ID'sidir.
	CreateRoomChannel(ctx context.Context, name string, ownerID uint64) (uint64, error)

	// DeleteChannel, kanalı siler. Saga'nın compensation adımı budur —
	// hatası pkg.ErrProvision sarmalıdır, caller CompensationError'a zincirler.
	DeleteChannel(ctx context.Context, channelID uint64) error

	// SetOverwrite, tek bir permission overwrite'ı upsert eder (idempotent).
	SetOverwrite(ctx context.Context, channelID uint64, target OverwriteTarget, allow, deny int64) error

	// ClearOverwrite, bir overwrite'ı tamamen kaldırır. Close operasyonu
	// clear-then-set yapar; platformun kısmi overwrite semantiği explicit
	// clear olmadan idempotent garanti etmez, iki çağrı bilinçli korunur.
	ClearOverwrite(ctx context.Context, channelID uint64, target OverwriteTarget) error

	// Rename, kanal adını değiştirir.
	Rename(ctx context.Context, channelID uint64, name string) error

	// ChannelName, kanalın platform tarafındaki güncel adını döner.
	ChannelName(ctx context.Context, channelID uint64) (string, error)
}

// sessionProvisioner, ChannelProvisioner'ın discordgo implementasyonu.
// Tek bir guild'e ve sabit bir rooms kategorisine bağlıdır (config'den).
type sessionProvisioner struct {
	session      *discordgo.Session
	guildID      uint64
	categoryID   uint64
	everyoneRole uint64
}

// NewSessionProvisioner, constructor — interface döner.
func NewSessionProvisioner(session *discordgo.Session, guildID, categoryID, everyoneRole uint64) ChannelProvisioner {
	return &sessionProvisioner{
		session:      session,
		guildID:      guildID,
		categoryID:   categoryID,
		everyoneRole: everyoneRole,
	}
}

func (p *sessionProvisioner) CreateRoomChannel(ctx context.Context, name string, ownerID uint64) (uint64, error) {
	// Baseline erişim modeli: sahip her şeyi yapabilir, @everyone göremez
	// ve bağlanamaz. Misafir erişimi sonradan key overwrite'larıyla eklenir.
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:    fmtID(ownerID),
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: PermsAll,
		},
		{
			ID:   fmtID(p.everyoneRole),
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: PermsRoomAccess,
		},
	}

	channel, err := p.session.GuildChannelCreateComplex(fmtID(p.guildID), discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		NSFW:                 true,
		ParentID:             fmtID(p.categoryID),
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create channel %q: %v", pkg.ErrProvision, name, err)
	}

	return parseID(channel.ID)
}

func (p *sessionProvisioner) DeleteChannel(ctx context.Context, channelID uint64) error {
	if _, err := p.session.ChannelDelete(fmtID(channelID), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: failed to delete channel %d: %v", pkg.ErrProvision, channelID, err)
	}
	return nil
}

func (p *sessionProvisioner) SetOverwrite(ctx context.Context, channelID uint64, target OverwriteTarget, allow, deny int64) error {
	err := p.session.ChannelPermissionSet(
		fmtID(channelID),
		fmtID(target.ID),
		target.overwriteType(),
		allow,
		deny,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to set overwrite on channel %d: %v", pkg.ErrProvision, channelID, err)
	}
	return nil
}

func (p *sessionProvisioner) ClearOverwrite(ctx context.Context, channelID uint64, target OverwriteTarget) error {
	err := p.session.ChannelPermissionDelete(fmtID(channelID), fmtID(target.ID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: failed to clear overwrite on channel %d: %v", pkg.ErrProvision, channelID, err)
	}
	return nil
}

func (p *sessionProvisioner) Rename(ctx context.Context, channelID uint64, name string) error {
	_, err := p.session.ChannelEdit(fmtID(channelID), &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: failed to rename channel %d: %v", pkg.ErrProvision, channelID, err)
	}
	return nil
}

func (p *sessionProvisioner) ChannelName(ctx context.Context, channelID uint64) (string, error) {
	channel, err := p.session.Channel(fmtID(channelID), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch channel %d: %v", pkg.ErrProvision, channelID, err)
	}
	return channel.Name, nil
}

// parseID, discordgo'nun string ID'sini uint64'e çevirir.
func parseID(raw string) (uint64, error) {
	id, err := parseSnowflake(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: platform returned malformed channel id %q: %v", pkg.ErrProvision, raw, err)
	}
	return id, nil
}
