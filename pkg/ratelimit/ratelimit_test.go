package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewCommandRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow(1001) {
			t.Fatalf("command %d should be allowed", i+1)
		}
	}
	if rl.Allow(1001) {
		t.Error("4th command within the window should be rejected")
	}
}

// Limit kullanıcı bazlıdır — bir kullanıcının spam'i diğerini etkilemez.
func TestLimitIsPerUser(t *testing.T) {
	rl := NewCommandRateLimiter(1, time.Minute)
	defer rl.Stop()

	if !rl.Allow(1001) {
		t.Fatal("first user's command should be allowed")
	}
	if !rl.Allow(2002) {
		t.Error("second user must have an independent bucket")
	}
	if rl.Allow(1001) {
		t.Error("first user's second command should be rejected")
	}
}

func TestWindowResets(t *testing.T) {
	rl := NewCommandRateLimiter(1, 10*time.Millisecond)
	defer rl.Stop()

	if !rl.Allow(1001) {
		t.Fatal("first command should be allowed")
	}
	if rl.Allow(1001) {
		t.Fatal("second command within the window should be rejected")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow(1001) {
		t.Error("command after window expiry should be allowed")
	}
}
