package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type result struct {
	Group string  `json:"group"`
	FDR   float64 `json:"fdr"`
}

func newTestCache(t *testing.T, ttlHours int) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), ttlHours, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	c := newTestCache(t, 24)
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err := New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "nested", "cache", "dir")

	if _, err := New(cacheDir, 24, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestKey(t *testing.T) {
	a := Key("abc", 0.1, 100, uint64(123456))
	if a != "abc|0.1|100|123456" {
		t.Errorf("Key() = %q", a)
	}
	if a == Key("abc", 0.1, 100, uint64(1)) {
		t.Error("different parameters must give different keys")
	}
	if Key("abc") != "abc" {
		t.Errorf("Key() without params = %q", Key("abc"))
	}
}

func TestHashBytes(t *testing.T) {
	h1 := HashBytes([]byte("a b c d\n"))
	h2 := HashBytes([]byte("a b c d\n"))
	h3 := HashBytes([]byte("a b c e\n"))

	if h1 != h2 {
		t.Error("same content should hash equal")
	}
	if h1 == h3 {
		t.Error("different content should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t, 24)
	key := Key("hash", 0.1)
	data := []byte(`{"group":"g1","fdr":0.01}`)

	if err := c.Set(key, data); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %s, want %s", got, data)
	}

	if _, ok := c.Get(Key("hash", 0.2)); ok {
		t.Error("Get() returned true for a different key")
	}
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	c := newTestCache(t, 24)
	if err := c.Set("k", []byte("not json")); err == nil {
		t.Error("Set() should reject non-JSON data")
	}
}

func TestGetExpired(t *testing.T) {
	c := newTestCache(t, 1)
	key := "old"

	entry := Entry{Key: key, Timestamp: time.Now().Add(-2 * time.Hour), Data: json.RawMessage(`1`)}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.keyPath(key), raw, 0600); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("Get() should miss expired entries")
	}
	if _, err := os.Stat(c.keyPath(key)); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(t, 0)
	key := "forever"

	entry := Entry{Key: key, Timestamp: time.Now().Add(-1000 * time.Hour), Data: json.RawMessage(`2`)}
	raw, _ := json.Marshal(entry)
	if err := os.WriteFile(c.keyPath(key), raw, 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); !ok {
		t.Error("zero TTL entries should not expire")
	}
}

func TestStoreAndLoad(t *testing.T) {
	c := newTestCache(t, 24)
	key := Key("input", 0.1, 100)
	want := []result{{Group: "g1", FDR: 0.01}, {Group: "g2", FDR: 0.5}}

	if err := Store(c, key, want); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	var got []result
	if !Load(c, key, &got) {
		t.Fatal("Load() missed a stored value")
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadDropsUndecodableEntries(t *testing.T) {
	c := newTestCache(t, 24)
	if err := c.Set("k", []byte(`"a string"`)); err != nil {
		t.Fatal(err)
	}

	var got []result
	if Load(c, "k", &got) {
		t.Error("Load() should miss on a type mismatch")
	}
	if _, err := os.Stat(c.keyPath("k")); !os.IsNotExist(err) {
		t.Error("undecodable entry should be removed")
	}
}

func TestDisabledCache(t *testing.T) {
	c, _ := New("", 0, false)

	if err := c.Set("k", []byte(`1`)); err != nil {
		t.Errorf("Set() on disabled cache: %v", err)
	}
	if err := Store(c, "k", 1); err != nil {
		t.Errorf("Store() on disabled cache: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache should always miss")
	}
	var v int
	if Load(c, "k", &v) {
		t.Error("disabled cache should always miss")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() on disabled cache: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear() on disabled cache: %v", err)
	}
	stats, err := c.GetStats()
	if err != nil || stats.Entries != 0 {
		t.Errorf("GetStats() = %+v, %v", stats, err)
	}
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t, 24)
	_ = c.Set("k", []byte(`1`))

	if err := c.Invalidate("k"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("entry should be gone")
	}
	if err := c.Invalidate("k"); err != nil {
		t.Errorf("Invalidate() of a missing key: %v", err)
	}
}

func TestClearAndStats(t *testing.T) {
	c := newTestCache(t, 24)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(k, []byte(`{"x":1}`)); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Error("TotalSize should be positive")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	stats, err = c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() after Clear() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries after Clear() = %d, want 0", stats.Entries)
	}
}
