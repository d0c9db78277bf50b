package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/akinalp/otelbot/pkg"
)

// RoleAssigner, bir kullanıcıya guild rolü verir.
// Saga'nın üçüncü adımı budur — "aktif odası var" işareti.
type RoleAssigner interface {
	// GrantRole, kullanıcıya rolü ekler. reason, platform audit log'unda görünür.
	GrantRole(ctx context.Context, userID, roleID uint64, reason string) error
}

// sessionRoleAssigner, RoleAssigner'ın discordgo implementasyonu.
type sessionRoleAssigner struct {
	session *discordgo.Session
	guildID uint64
}

// NewSessionRoleAssigner, constructor — interface döner.
func NewSessionRoleAssigner(session *discordgo.Session, guildID uint64) RoleAssigner {
	return &sessionRoleAssigner{session: session, guildID: guildID}
}

func (a *sessionRoleAssigner) GrantRole(ctx context.Context, userID, roleID uint64, reason string) error {
	err := a.session.GuildMemberRoleAdd(
		fmtID(a.guildID),
		fmtID(userID),
		fmtID(roleID),
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(reason),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to grant role %d to user %d: %v", pkg.ErrRole, roleID, userID, err)
	}
	return nil
}
