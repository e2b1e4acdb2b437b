package postgres

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
)

func TestHashLockName_Stable(t *testing.T) {
	a := hashLockName("plagiarism:sub-1")
	b := hashLockName("plagiarism:sub-1")
	if a != b {
		t.Errorf("expected stable hash, got %d and %d", a, b)
	}
	if a == hashLockName("plagiarism:sub-2") {
		t.Error("expected different names to hash differently")
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.42, 0.42},
		{1.0000001, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNullVector(t *testing.T) {
	if v := nullVector(nil); v != nil {
		t.Errorf("expected nil for empty embedding, got %v", v)
	}
	if v := nullVector([]float32{1, 0}); v == nil {
		t.Error("expected vector value for non-empty embedding")
	}
}

func TestNullTime(t *testing.T) {
	if nullTime(nil).Valid {
		t.Error("expected invalid NullTime for nil")
	}
	now := time.Now()
	nt := nullTime(&now)
	if !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("unexpected NullTime %+v", nt)
	}
	if timePtr(nt) == nil {
		t.Error("expected non-nil time pointer")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/similarity")
	if cfg.MaxOpenConns <= cfg.MaxIdleConns {
		t.Errorf("expected more open than idle connections, got %d/%d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnectAttempts < 2 || cfg.ConnectBackoff <= 0 {
		t.Errorf("expected connect retries by default, got %d/%s", cfg.ConnectAttempts, cfg.ConnectBackoff)
	}
}

func TestConnect_GivesUpAfterAttempts(t *testing.T) {
	cfg := DefaultConfig("postgres://similarity:x@127.0.0.1:1/similarity?sslmode=disable&connect_timeout=1")
	cfg.ConnectAttempts = 2
	cfg.ConnectBackoff = time.Millisecond

	db, err := Connect(context.Background(), cfg)
	if err == nil {
		db.Close()
		t.Fatal("expected connect to fail against a closed port")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConnect_StopsRetryingOnCancel(t *testing.T) {
	cfg := DefaultConfig("postgres://similarity:x@127.0.0.1:1/similarity?sslmode=disable&connect_timeout=1")
	cfg.ConnectAttempts = 100
	cfg.ConnectBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Connect(ctx, cfg)
	if err == nil {
		t.Fatal("expected connect to fail")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("expected cancellation to stop retries, took %s", elapsed)
	}
}
