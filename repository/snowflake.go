// Package repository — snowflake/kolon dönüşümü.
//
// Discord snowflake'leri unsigned 64-bit, SQLite BIGINT kolonu signed
// 64-bit'tir. Aradaki dönüşüm SAYISAL değil BİT dönüşümüdür: üst biti set
// olan bir snowflake negatif bir BIGINT olarak saklanır ve geri okunduğunda
// aynı bit pattern'iyle uint64'e döner — kayıpsız round-trip.
//
// Bu dönüşüm SADECE bu pakette yaşar. Service katmanı ve üstü her zaman
// uint64 görür; signed temsil store sınırının dışına sızmaz.
package repository

// snowflakeToColumn, uint64 snowflake'i bit pattern'ini koruyarak
// signed kolon değerine çevirir.
func snowflakeToColumn(id uint64) int64 {
	return int64(id)
}

// columnToSnowflake, signed kolon değerini bit pattern'ini koruyarak
// uint64 snowflake'e çevirir. snowflakeToColumn'un tersidir.
func columnToSnowflake(v int64) uint64 {
	return uint64(v)
}
