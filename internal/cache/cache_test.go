package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	// Test enabled cache
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	// Test disabled cache
	c, err = New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "nested", "cache", "dir")

	c, err := New(cacheDir, 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
	if c.Dir() != cacheDir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), cacheDir)
	}
}

func TestSetAndGetWithHash(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "controller:abc:FooController.kt"
	hash := HashBytes([]byte("class FooController"))
	data := []byte(`{"record":{"name":"FooController"}}`)

	if err := c.SetWithHash(key, hash, data); err != nil {
		t.Fatalf("SetWithHash() error: %v", err)
	}

	got, ok := c.GetWithHash(key, hash)
	if !ok {
		t.Fatal("GetWithHash() returned false for matching hash")
	}
	if string(got) != string(data) {
		t.Errorf("GetWithHash() = %q, want %q", string(got), string(data))
	}

	if _, ok := c.GetWithHash(key, HashBytes([]byte("class FooController {}"))); ok {
		t.Error("GetWithHash() should return false for non-matching hash")
	}
	if _, ok := c.GetWithHash("other-key", hash); ok {
		t.Error("GetWithHash() should return false for unknown key")
	}
}

func TestClear(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	c, err := New(cacheDir, 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if err := c.SetWithHash(key, "h", []byte("data")); err != nil {
			t.Fatalf("SetWithHash() error: %v", err)
		}
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Error("Clear() should remove the cache directory")
	}
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := c.SetWithHash("key", "hash", []byte("data")); err != nil {
		t.Errorf("SetWithHash() on disabled cache should not error: %v", err)
	}
	if _, ok := c.GetWithHash("key", "hash"); ok {
		t.Error("GetWithHash() on disabled cache should return false")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache should not error: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() on disabled cache = %+v, %v", stats, err)
	}
}

func TestHashBytes(t *testing.T) {
	h1 := HashBytes([]byte("class A"))
	h2 := HashBytes([]byte("class A"))
	h3 := HashBytes([]byte("class B"))

	if h1 != h2 {
		t.Error("same content should produce same hash")
	}
	if h1 == h3 {
		t.Error("different content should produce different hashes")
	}
	// BLAKE3-256 hex
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("ObservableTransformer<UiEvent, UiChange>", "Observable<UiChange>")
	b := Fingerprint("ObservableTransformer<UiEvent, UiChange>", "Observable<UiChange>")
	c := Fingerprint("ObservableTransformer<UiEvent, UiChange>", "Observable<UiEvent>")
	d := Fingerprint("ab", "c")
	e := Fingerprint("a", "bc")

	if a != b {
		t.Error("same parts should produce the same fingerprint")
	}
	if a == c {
		t.Error("different parts should produce different fingerprints")
	}
	if d == e {
		t.Error("part boundaries should affect the fingerprint")
	}
}

func TestGetStats(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("empty cache has %d entries", stats.Entries)
	}

	for _, key := range []string{"a", "b"} {
		if err := c.SetWithHash(key, "h", []byte("data")); err != nil {
			t.Fatalf("SetWithHash() error: %v", err)
		}
	}

	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Error("TotalSize should be positive")
	}
}

func TestTTLExpiration(t *testing.T) {
	tmpDir := t.TempDir()
	c, err := New(filepath.Join(tmpDir, "cache"), 1, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	key := "expiring"
	entry := Entry{
		Hash:      "h",
		Timestamp: time.Now().Add(-2 * time.Hour),
		Data:      []byte("old"),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.keyPath(key), raw, 0600); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.GetWithHash(key, "h"); ok {
		t.Error("expired entry should not be returned")
	}
	if _, err := os.Stat(c.keyPath(key)); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestKeyPath(t *testing.T) {
	c := &Cache{dir: "/tmp/cache", enabled: true}

	p1 := c.keyPath("controller:x:/src/FooController.kt")
	p2 := c.keyPath("controller:x:/src/FooController.kt")
	p3 := c.keyPath("controller:y:/src/FooController.kt")

	if p1 != p2 {
		t.Error("same key should map to the same path")
	}
	if p1 == p3 {
		t.Error("different keys should map to different paths")
	}
	if filepath.Dir(p1) != "/tmp/cache" || filepath.Ext(p1) != ".json" {
		t.Errorf("unexpected key path %q", p1)
	}
}
