package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/roombook/internal/persistence"
)

func TestLocal_PutAndDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocal(root, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}
	ctx := context.Background()

	url, err := store.Put(ctx, "rooms/a.png", "image/png", strings.NewReader("png"), 3)
	if err != nil {
		t.Fatalf("expected put to succeed, got %v", err)
	}
	if url != "http://localhost:8080/uploads/rooms/a.png" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(root, "rooms", "a.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("expected stored file, got %q %v", data, err)
	}
	if err := store.Health(ctx); err != nil {
		t.Fatalf("expected healthy store, got %v", err)
	}

	if err := store.Delete(ctx, "rooms/a.png"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if err := store.Delete(ctx, "rooms/a.png"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}
	for _, key := range []string{"../outside.png", "", "rooms/../../x"} {
		if _, err := store.Put(context.Background(), key, "image/png", strings.NewReader("x"), 1); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestNewLocal_RequiresRoot(t *testing.T) {
	if _, err := NewLocal(" ", ""); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
