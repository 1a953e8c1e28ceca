package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCodeStore(t *testing.T) (*RedisCodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCodeStore(client), mr
}

func TestRedisCodeStore_SetGet(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "provider:abc:email", "482913", 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, "provider:abc:email")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "482913" {
		t.Fatalf("code = %q, want 482913", got)
	}
}

func TestRedisCodeStore_GetMissing(t *testing.T) {
	store, _ := newTestCodeStore(t)

	got, err := store.Get(context.Background(), "patient:nope:email")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("code = %q, want empty for missing key", got)
	}
}

func TestRedisCodeStore_Delete(t *testing.T) {
	store, _ := newTestCodeStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "patient:abc:phone", "000111", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "patient:abc:phone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := store.Get(ctx, "patient:abc:phone")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("code = %q, want empty after delete", got)
	}
}

func TestRedisCodeStore_Expiry(t *testing.T) {
	store, mr := newTestCodeStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "provider:abc:email", "482913", 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(11 * time.Minute)

	got, err := store.Get(ctx, "provider:abc:email")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("code = %q, want empty after TTL", got)
	}
}

func TestMemoryCodeStore_SetGetDelete(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	if err := store.Set(ctx, "provider:abc:email", "482913", 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, "provider:abc:email")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "482913" {
		t.Fatalf("code = %q, want 482913", got)
	}

	if err := store.Delete(ctx, "provider:abc:email"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = store.Get(ctx, "provider:abc:email")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("code = %q, want empty after delete", got)
	}
}

func TestMemoryCodeStore_Expiry(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	if err := store.Set(ctx, "patient:abc:phone", "000111", -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, "patient:abc:phone")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("code = %q, want empty for expired entry", got)
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("20 draws produced %d distinct codes", len(seen))
	}
}
