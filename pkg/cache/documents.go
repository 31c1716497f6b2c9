package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/nodeplot/pkg/observability"
)

// documentNamespace prefixes keys of lowered documents. Bump the version when
// the document format or the [Entry] layout changes.
const documentNamespace = "document.v2"

// Entry is a cached lowered document together with the counts reported for
// the scene that produced it. The counts cannot be recovered from the
// encoded document.
type Entry struct {
	Document    []byte `json:"document"`
	Nodes       int    `json:"nodes"`
	Links       int    `json:"links"`
	Unconnected int    `json:"unconnected"`
}

// Documents caches encoded lowered documents by the source bytes of the scene
// that produced them, reporting hits and misses to the cache hooks.
type Documents struct {
	store Cache
	ttl   time.Duration
}

// NewDocuments wraps store. A nil store behaves as [NullCache].
func NewDocuments(store Cache, ttl time.Duration) *Documents {
	if store == nil {
		store = NullCache{}
	}
	return &Documents{store: store, ttl: ttl}
}

// Lookup returns the cached entry for a scene source and its format.
// Cache read failures and undecodable entries count as misses.
func (d *Documents) Lookup(ctx context.Context, source []byte, format string) (Entry, bool) {
	var e Entry
	data, ok, err := d.store.Get(ctx, Key(documentNamespace, format, Hash(source)))
	if err != nil || !ok || json.Unmarshal(data, &e) != nil || e.Document == nil {
		observability.Cache().OnCacheMiss(ctx, "document")
		return Entry{}, false
	}
	observability.Cache().OnCacheHit(ctx, "document")
	return e, true
}

// Store saves an entry for a scene source.
func (d *Documents) Store(ctx context.Context, source []byte, format string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := d.store.Set(ctx, Key(documentNamespace, format, Hash(source)), data, d.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "document", len(e.Document))
	return nil
}
