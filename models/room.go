// Package models, domain veri yapılarını barındırır.
package models

import "strings"

// RoomOwnership, bir kullanıcı ile sahip olduğu oda kanalı arasındaki
// kalıcı bağı temsil eder.
//
// Invariant: her kullanıcının EN FAZLA bir satırı olabilir (user_id PK).
// ChannelID her oda operasyonu için source of truth'tur — kanalın Discord
// tarafında hâlâ var olup olmadığını store doğrulamaz; silme gerçeği
// platforma aittir. Rol ataması başarısız olduğunda satır silinmiş bir
// kanalı gösterebilir (bilinen boşluk); onarım /room reset room_id iledir.
type RoomOwnership struct {
	UserID    uint64 `json:"user_id"`
	ChannelID uint64 `json:"channel_id"`
}

// CanonicalRoomName, kullanıcı adından deterministik oda kanal adı türetir:
// lowercase + sadece ASCII alfanümerik karakterler + "room-" prefix'i.
//
// Örnek: "Jane Doe" → "room-janedoe".
//
// Deterministik olması önemli: reset name operasyonu mevcut kanal adını
// bu fonksiyonun çıktısıyla karşılaştırıp sadece farklıysa rename eder.
func CanonicalRoomName(username string) string {
	var b strings.Builder
	b.WriteString("room-")

	for _, ch := range strings.ToLower(username) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}

	return b.String()
}
