package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("empty cache: want ErrCacheMiss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get: got %q err %v", got, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("after delete: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Fatalf("expired entry: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	_ = c.Set(ctx, "pacientes:a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "pacientes:b", []byte("2"), time.Minute)
	_ = c.Set(ctx, "citas:a", []byte("3"), time.Minute)
	if err := c.DeletePrefix(ctx, "pacientes:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := c.Get(ctx, "pacientes:a"); err != ErrCacheMiss {
		t.Fatal("pacientes:a should be gone")
	}
	if _, err := c.Get(ctx, "citas:a"); err != nil {
		t.Fatal("citas:a should survive")
	}
}
