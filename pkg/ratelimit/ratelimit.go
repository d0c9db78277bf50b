// Package ratelimit — CommandRateLimiter: komut spam'ine karşı
// kullanıcı bazlı rate limiting.
//
// Tasarım:
// - Her kullanıcı ID'si için sliding window ile komut sayısı takip edilir.
// - Window süresi içinde maxCommands aşılırsa komut reddedilir.
// - Background goroutine ile süresi dolmuş bucket'lar temizlenir (memory leak engeli).
//
// Neden in-memory?
// - Oda komutları zaten düşük frekanslı; SQLite'a her komutta yazmak gereksiz I/O.
// - Tek instance deploy — dağıtık sayaca gerek yok.
// - sync.Mutex ile thread-safe: her komut invocation'ı ayrı goroutine'de koşar.
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir kullanıcı için komut sayacı ve window başlangıç zamanı tutar.
type bucket struct {
	count       int
	windowStart time.Time
}

// CommandRateLimiter, kullanıcı bazlı komut rate limiting.
//
// Kullanım:
//
//	limiter := ratelimit.NewCommandRateLimiter(10, time.Minute)
//	// Dispatcher'da:
//	if !limiter.Allow(userID) { reply("slow down") }
type CommandRateLimiter struct {
	mu          sync.Mutex
	buckets     map[uint64]*bucket
	maxCommands int
	window      time.Duration
	stopCleanup chan struct{}
}

// NewCommandRateLimiter, yeni rate limiter oluşturur ve arka plan temizleme
// goroutine'ini başlatır.
//
// maxCommands: Pencere başına izin verilen komut sayısı (ör: 10).
// window: Pencere süresi (ör: time.Minute → dakikada 10 komut).
func NewCommandRateLimiter(maxCommands int, window time.Duration) *CommandRateLimiter {
	rl := &CommandRateLimiter{
		buckets:     make(map[uint64]*bucket),
		maxCommands: maxCommands,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, verilen kullanıcının komut çalıştırmasına izin verilip
// verilmediğini kontrol eder. Her çağrı sayacı artırır.
func (rl *CommandRateLimiter) Allow(userID uint64) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &bucket{count: 1, windowStart: now}
		return true
	}

	// Window süresi dolmuş mu?
	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxCommands
}

// Stop, arka plan temizleme goroutine'ini durdurur (graceful shutdown).
func (rl *CommandRateLimiter) Stop() {
	close(rl.stopCleanup)
}

// cleanupLoop, arka planda süresi dolmuş bucket'ları temizler.
func (rl *CommandRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, süresi dolmuş tüm bucket'ları siler.
func (rl *CommandRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, userID)
		}
	}
}
