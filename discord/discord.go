// Package discord, dış platform (Discord) adaptörlerini barındırır.
//
// repository paketi nasıl SQLite'ı saklıyorsa, bu paket de discordgo'yu
// saklar: service katmanı sadece buradaki interface'leri görür. Testlerde
// bu interface'ler fake implementasyonlarla değiştirilir — gerçek Discord
// API'sine hiç dokunulmaz.
//
// discordgo ID'leri string taşır; proje içinde snowflake'ler uint64'tür.
// Dönüşüm bu paketin sınırında yapılır (fmtID), tıpkı signed kolon
// dönüşümünün repository sınırında kalması gibi.
package discord

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Oda erişim izin bitleri.
//
// PermsRoomAccess, bir "key"in verdiği izinlerdir: kanalı görme + bağlanma.
// Open/close de aynı bit'leri @everyone rolü üzerinde hedefler.
const (
	PermsRoomAccess = int64(discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect)
	PermsAll        = int64(discordgo.PermissionAll)
)

// OverwriteKind, bir permission overwrite'ın hedef türü (rol veya üye).
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

// OverwriteTarget, bir overwrite'ın hedefini tanımlar.
type OverwriteTarget struct {
	ID   uint64
	Kind OverwriteKind
}

// RoleTarget, rol hedefli OverwriteTarget oluşturur.
func RoleTarget(roleID uint64) OverwriteTarget {
	return OverwriteTarget{ID: roleID, Kind: OverwriteRole}
}

// MemberTarget, üye hedefli OverwriteTarget oluşturur.
func MemberTarget(userID uint64) OverwriteTarget {
	return OverwriteTarget{ID: userID, Kind: OverwriteMember}
}

// overwriteType, OverwriteKind'ı discordgo karşılığına çevirir.
func (t OverwriteTarget) overwriteType() discordgo.PermissionOverwriteType {
	if t.Kind == OverwriteMember {
		return discordgo.PermissionOverwriteTypeMember
	}
	return discordgo.PermissionOverwriteTypeRole
}

// fmtID, uint64 snowflake'i discordgo'nun beklediği string forma çevirir.
func fmtID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// parseSnowflake, discordgo'dan gelen string ID'yi uint64'e çevirir.
func parseSnowflake(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}
