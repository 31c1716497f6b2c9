// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through hook interfaces without depending on a
// metrics backend. The server registers Prometheus-backed implementations at
// startup; everything else runs against the no-op defaults.
//
// # Architecture
//
//   - Hook interfaces per event category (lowering, feedback, engine, cache)
//   - No-op default implementations
//   - A registry that main replaces at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLoweringHooks(metrics)
//	    observability.SetFeedbackHooks(metrics)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Lowering().OnLowerStart(ctx, len(g.Roots()))
//	doc, err := lower.Lower(g, opts)
//	observability.Lowering().OnLowerComplete(ctx, len(doc.Descriptors), len(doc.Unconnected), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Lowering Hooks
// =============================================================================

// LoweringHooks receives events from lowering a node graph into a document.
type LoweringHooks interface {
	OnLowerStart(ctx context.Context, roots int)
	OnLowerComplete(ctx context.Context, descriptors, unconnected int, duration time.Duration, err error)
}

// =============================================================================
// Feedback Hooks
// =============================================================================

// FeedbackHooks receives events when engine results are applied to a graph.
type FeedbackHooks interface {
	// OnFeedbackApplied records one applied batch. Dropped counts records
	// naming nodes that no longer exist.
	OnFeedbackApplied(ctx context.Context, errors, warnings, dropped int)

	// OnStaleBatch records a batch discarded because a newer request superseded it.
	OnStaleBatch(ctx context.Context, requestID string)
}

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from compute engine round trips.
type EngineHooks interface {
	OnRequest(ctx context.Context, requestID string, size int)
	OnResponse(ctx context.Context, requestID string, records int, duration time.Duration)
	OnError(ctx context.Context, requestID string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLoweringHooks is a no-op implementation of LoweringHooks.
type NoopLoweringHooks struct{}

func (NoopLoweringHooks) OnLowerStart(context.Context, int)                                {}
func (NoopLoweringHooks) OnLowerComplete(context.Context, int, int, time.Duration, error) {}

// NoopFeedbackHooks is a no-op implementation of FeedbackHooks.
type NoopFeedbackHooks struct{}

func (NoopFeedbackHooks) OnFeedbackApplied(context.Context, int, int, int) {}
func (NoopFeedbackHooks) OnStaleBatch(context.Context, string)             {}

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnRequest(context.Context, string, int)                     {}
func (NoopEngineHooks) OnResponse(context.Context, string, int, time.Duration)     {}
func (NoopEngineHooks) OnError(context.Context, string, error)                     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	loweringHooks LoweringHooks = NoopLoweringHooks{}
	feedbackHooks FeedbackHooks = NoopFeedbackHooks{}
	engineHooks   EngineHooks   = NoopEngineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetLoweringHooks registers custom lowering hooks.
func SetLoweringHooks(h LoweringHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		loweringHooks = h
	}
}

// SetFeedbackHooks registers custom feedback hooks.
func SetFeedbackHooks(h FeedbackHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		feedbackHooks = h
	}
}

// SetEngineHooks registers custom engine hooks.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Lowering returns the registered lowering hooks.
func Lowering() LoweringHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return loweringHooks
}

// Feedback returns the registered feedback hooks.
func Feedback() FeedbackHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return feedbackHooks
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	loweringHooks = NoopLoweringHooks{}
	feedbackHooks = NoopFeedbackHooks{}
	engineHooks = NoopEngineHooks{}
	cacheHooks = NoopCacheHooks{}
}
