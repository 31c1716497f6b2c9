package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/nodeplot/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) should miss")
	}

	if err := c.Set(ctx, "k", []byte(`{"a":1}`), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != `{"a":1}` {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry file should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry Get() = %v, %v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKey(t *testing.T) {
	k1 := Key("document.v1", "toml", "abc")
	k2 := Key("document.v1", "yaml", "abc")
	if k1 == k2 {
		t.Error("different parts should produce different keys")
	}
	if k1 != Key("document.v1", "toml", "abc") {
		t.Error("Key should be deterministic")
	}
	if k1[:12] != "document.v1:" {
		t.Errorf("Key() = %s, want document.v1: prefix", k1)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestDocuments(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	docs := NewDocuments(fc, time.Hour)
	src := []byte("[[nodes]]\nkey = \"a\"\nprefab = \"Curve\"\n")

	if _, ok := docs.Lookup(ctx, src, "toml"); ok {
		t.Fatal("first Lookup should miss")
	}
	entry := Entry{Document: []byte(`{"descriptors":[]}`), Nodes: 3, Links: 2, Unconnected: 1}
	if err := docs.Store(ctx, src, "toml", entry); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	got, ok := docs.Lookup(ctx, src, "toml")
	if !ok || string(got.Document) != `{"descriptors":[]}` {
		t.Errorf("Lookup() = %q, %v", got.Document, ok)
	}
	if got.Nodes != 3 || got.Links != 2 || got.Unconnected != 1 {
		t.Errorf("Lookup() counts = %d nodes, %d links, %d unconnected; want 3, 2, 1", got.Nodes, got.Links, got.Unconnected)
	}
	if _, ok := docs.Lookup(ctx, src, "yaml"); ok {
		t.Error("Lookup with another format should miss")
	}

	// A bare document without counts is not an entry and misses.
	_ = fc.Set(ctx, Key(documentNamespace, "json", Hash(src)), []byte("not an entry"), 0)
	if _, ok := docs.Lookup(ctx, src, "json"); ok {
		t.Error("undecodable entry should miss")
	}

	if hooks.hits != 1 || hooks.misses != 3 || hooks.sets != 1 {
		t.Errorf("hooks = %d hits, %d misses, %d sets; want 1, 3, 1", hooks.hits, hooks.misses, hooks.sets)
	}

	if _, ok := NewDocuments(nil, 0).Lookup(ctx, src, "toml"); ok {
		t.Error("nil store should always miss")
	}
}
