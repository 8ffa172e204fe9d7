package apptcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestSetGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tech := uuid.New()

	if err := store.Set(ctx, tech, "ofr-1", "apt-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, tech, "ofr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "apt-1" {
		t.Errorf("got %q, want apt-1", got)
	}

	if err := store.Delete(ctx, tech, "ofr-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err = store.Get(ctx, tech, "ofr-1")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != "" {
		t.Errorf("pointer should be gone, got %q", got)
	}
}

func TestMissingPointerIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), uuid.New(), "ofr-unknown")
	if err != nil {
		t.Fatalf("missing pointer must not error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty pointer, got %q", got)
	}
}

func TestPointersAreScopedByTechnician(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if err := store.Set(ctx, alice, "ofr-1", "apt-alice"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, bob, "ofr-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("pointer leaked across technicians on a shared device: %q", got)
	}
}
