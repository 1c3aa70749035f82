package util

import (
	"context"
	"testing"
	"time"
)

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"c": 3, "a": 1, "b": 2}
	keys := SortedStringKeys(m)
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	if got := SortedStringKeys(map[string]struct{}{}); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestGetHeapAllocMB(t *testing.T) {
	t.Parallel()

	// Just sanity: a running test binary has some live heap but not petabytes.
	mb := GetHeapAllocMB()
	if mb > 1<<20 {
		t.Fatalf("implausible heap size: %d MB", mb)
	}
}

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
