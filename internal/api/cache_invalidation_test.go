package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AlanPillo/Backend-App/internal/cache"
)

func TestInvalidateListasScopedToCliente(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	defer c.Close()
	h := testHandler()
	h.Cache = c

	mio := uuid.New()
	otro := uuid.New()
	for _, key := range []string{"pacientes:" + mio.String(), "pacientes:" + otro.String(), "pacientes:all"} {
		if err := c.Set(ctx, key, []byte("[]"), time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	h.invalidateListas(ctx, &mio)

	if _, err := c.Get(ctx, "pacientes:"+mio.String()); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("la vista del cliente mutado debe caer: %v", err)
	}
	if _, err := c.Get(ctx, "pacientes:all"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("la vista del owner debe caer: %v", err)
	}
	// La vista de otro cliente no se ve afectada por una mutación ajena.
	if _, err := c.Get(ctx, "pacientes:"+otro.String()); err != nil {
		t.Fatalf("la vista de otro cliente debe sobrevivir: %v", err)
	}
}

func TestInvalidateListasSinClienteBorraTodo(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	defer c.Close()
	h := testHandler()
	h.Cache = c

	a, b := uuid.New(), uuid.New()
	keys := []string{"pacientes:" + a.String(), "pacientes:" + b.String(), "pacientes:all"}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte("[]"), time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	h.invalidateListas(ctx, nil)

	for _, key := range keys {
		if _, err := c.Get(ctx, key); !errors.Is(err, cache.ErrCacheMiss) {
			t.Fatalf("%s debe caer: %v", key, err)
		}
	}
}
