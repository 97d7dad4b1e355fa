package ratelimiter

import (
	"testing"
	"time"
)

func TestAllowUnderLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
}

func TestDenyOverLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(2, time.Minute)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")

	ok, retryAfter := rl.Allow("10.0.0.1")
	if ok {
		t.Fatal("request over the limit allowed")
	}
	if retryAfter != time.Minute {
		t.Errorf("retryAfter = %v, want %v", retryAfter, time.Minute)
	}
}

func TestClientsCountedSeparately(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	rl.Allow("10.0.0.1")
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Fatal("second client denied by first client's count")
	}
}
