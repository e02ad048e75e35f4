package ratelimit

import (
	"testing"
	"time"
)

func TestFixedIntervalFirstRequestAllowed(t *testing.T) {
	f := NewFixedInterval(time.Hour)
	if !f.Allow() {
		t.Error("first request should always be allowed")
	}
	if f.Allow() {
		t.Error("second immediate request should be blocked")
	}
}

func TestFixedIntervalZeroDisablesPacing(t *testing.T) {
	f := NewFixedInterval(0)
	for i := 0; i < 10; i++ {
		if !f.Allow() {
			t.Fatal("zero interval should never block")
		}
	}
}

func TestFixedIntervalWait(t *testing.T) {
	interval := 50 * time.Millisecond
	f := NewFixedInterval(interval)

	f.Wait() // first wait returns immediately
	start := time.Now()
	f.Wait()
	elapsed := time.Since(start)

	if elapsed < interval {
		t.Errorf("expected wait of at least %v, got %v", interval, elapsed)
	}
}

func TestFixedIntervalReset(t *testing.T) {
	f := NewFixedInterval(time.Hour)
	f.Allow()
	f.Reset()
	if !f.Allow() {
		t.Error("request after Reset should be allowed")
	}
}

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(2, time.Hour)

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("expected capacity of 2 to allow two requests")
	}
	if tb.Allow() {
		t.Error("expected third request to be blocked")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("expected request after Reset to be allowed")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket should have refilled after the period")
	}
}
