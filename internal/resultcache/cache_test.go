package resultcache

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	return New(path, 90*24*time.Hour, nil, opts...)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" The Little   Prince! ", "the little prince"},
		{"the little prince", "the little prince"},
		{"Don't Panic", "don t panic"},
		{"星の王子さま", "星の王子さま"},
		{"Война и мир", "война и мир"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{" The Little   Prince! ", "Moby-Dick; or, The Whale", "百年の孤独"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestKeyStability(t *testing.T) {
	if Key(" The Little   Prince! ", "") != Key("the little prince", "") {
		t.Error("equivalent titles should derive the same key")
	}
	if Key("The Little Prince", "Antoine de Saint-Exupéry") == Key("The Little Prince", "") {
		t.Error("author must contribute to the key")
	}
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("separator must prevent title/author collisions")
	}
}

func TestHasAndGetLifecycle(t *testing.T) {
	cache := newTestCache(t)

	if cache.Has("The Little Prince", "Saint-Exupéry") {
		t.Fatal("Has should be false before Set")
	}
	if _, ok := cache.Get("The Little Prince", "Saint-Exupéry"); ok {
		t.Fatal("Get should miss before Set")
	}

	err := cache.Set("The Little Prince", "Saint-Exupéry", Entry{
		JobID:        "job-1",
		VideoLocator: "output/final.mp4",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	if !cache.Has("the little prince!", "saint exupéry") {
		t.Error("Has should match the normalized identity")
	}

	entry, ok := cache.Get("The Little Prince", "Saint-Exupéry")
	if !ok {
		t.Fatal("Get should hit after Set")
	}
	if entry.VideoLocator != "output/final.mp4" {
		t.Errorf("VideoLocator = %q", entry.VideoLocator)
	}
	if entry.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", entry.RequestCount)
	}

	entry, _ = cache.Get("The Little Prince", "Saint-Exupéry")
	if entry.RequestCount != 2 {
		t.Errorf("RequestCount = %d, want 2 after second hit", entry.RequestCount)
	}
}

func TestTTLExpiryEvicts(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := newTestCache(t, WithClock(func() time.Time { return current }))

	if err := cache.Set("Dune", "Herbert", Entry{JobID: "job-2"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !cache.Has("Dune", "Herbert") {
		t.Fatal("entry should be live immediately after Set")
	}

	current = current.Add(90*24*time.Hour + time.Minute)

	if cache.Has("Dune", "Herbert") {
		t.Error("Has should be false after TTL elapses")
	}
	if cache.Count() != 0 {
		t.Error("expired entry should be evicted lazily by Has")
	}
}

func TestCleanExpired(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := newTestCache(t, WithClock(func() time.Time { return current }))

	if err := cache.Set("Old Book", "", Entry{}); err != nil {
		t.Fatal(err)
	}
	current = current.Add(30 * 24 * time.Hour)
	if err := cache.Set("New Book", "", Entry{}); err != nil {
		t.Fatal(err)
	}

	current = current.Add(61 * 24 * time.Hour) // old: 91d, new: 61d

	if removed := cache.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired = %d, want 1", removed)
	}
	if !cache.Has("New Book", "") {
		t.Error("unexpired entry should survive the sweep")
	}
}

func TestPersistenceAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	first := New(path, 24*time.Hour, nil)
	if err := first.Set("Persisted", "Author", Entry{JobID: "job-3"}); err != nil {
		t.Fatal(err)
	}

	second := New(path, 24*time.Hour, nil)
	entry, ok := second.Get("Persisted", "Author")
	if !ok {
		t.Fatal("entry should survive reload")
	}
	if entry.JobID != "job-3" {
		t.Errorf("JobID = %q", entry.JobID)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	cache := New("", time.Hour, nil)
	if err := cache.Set("Anything", "", Entry{}); err != nil {
		t.Fatalf("Set on disabled cache: %v", err)
	}
	if cache.Has("Anything", "") {
		t.Error("disabled cache should never report entries")
	}
	if cache.Count() != 0 {
		t.Error("disabled cache count should be 0")
	}
}
