package storage

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestLocalSaveLoadRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	locator, err := store.Save(ctx, "jobs/job-1/scene_1.mp4", []byte("video bytes"), Metadata{"scene": "1"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if locator == "" {
		t.Fatal("empty locator")
	}

	data, err := store.Load(ctx, "jobs/job-1/scene_1.mp4")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "video bytes" {
		t.Errorf("Load = %q", data)
	}

	exists, err := store.Exists(ctx, "jobs/job-1/scene_1.mp4")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}

	url, err := store.URL(ctx, "jobs/job-1/scene_1.mp4")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("URL = %q, want file:// prefix", url)
	}

	// Metadata sidecar written next to the artifact.
	if _, err := os.Stat(locator + ".meta.json"); err != nil {
		t.Errorf("metadata sidecar missing: %v", err)
	}
}

func TestLocalExistsMiss(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	exists, err := store.Exists(context.Background(), "nope.bin")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("Exists should be false for missing key")
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(context.Background(), "../escape.bin", []byte("x"), nil); err == nil {
		t.Error("expected error for key escaping the storage root")
	}
}

func TestLocalRequiresKey(t *testing.T) {
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background(), "  "); err == nil {
		t.Error("expected error for blank key")
	}
}
