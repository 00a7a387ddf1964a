// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about extraction passes, entity fetches and HTTP calls.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetScanHooks(&myScanHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnScanStart(ctx, full)
//	// ... extraction pass ...
//	observability.Scan().OnScanComplete(ctx, full, marked, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanHooks receives events from the DOM scanner.
type ScanHooks interface {
	// OnScanStart records the start of an extraction pass. full is true for the
	// startup pass over the whole document.
	OnScanStart(ctx context.Context, full bool)

	// OnScanComplete records the end of a pass and how many targets it marked.
	OnScanComplete(ctx context.Context, full bool, targets int, duration time.Duration)

	// OnScanDropped records a mutation notification that did not trigger a pass.
	OnScanDropped(ctx context.Context, reason string)
}

// =============================================================================
// Entity Hooks
// =============================================================================

// EntityHooks receives events from the entity cache and fetch orchestrator.
type EntityHooks interface {
	// OnCacheHit records a resolve served by an existing record.
	OnCacheHit(ctx context.Context, kind string)

	// OnCacheMiss records a resolve that created a record.
	OnCacheMiss(ctx context.Context, kind string)

	// OnFetchComplete records the end of a primary or supplementary fetch.
	OnFetchComplete(ctx context.Context, kind, name string, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, bool)                         {}
func (NoopScanHooks) OnScanComplete(context.Context, bool, int, time.Duration) {}
func (NoopScanHooks) OnScanDropped(context.Context, string)                     {}

// NoopEntityHooks is a no-op implementation of EntityHooks.
type NoopEntityHooks struct{}

func (NoopEntityHooks) OnCacheHit(context.Context, string)  {}
func (NoopEntityHooks) OnCacheMiss(context.Context, string) {}
func (NoopEntityHooks) OnFetchComplete(context.Context, string, string, time.Duration, error) {
}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks   ScanHooks   = NoopScanHooks{}
	entityHooks EntityHooks = NoopEntityHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetScanHooks registers custom scan hooks.
// This should be called once at application startup.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetEntityHooks registers custom entity hooks.
// This should be called once at application startup.
func SetEntityHooks(h EntityHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		entityHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Entity returns the registered entity hooks.
func Entity() EntityHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return entityHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	entityHooks = NoopEntityHooks{}
	httpHooks = NoopHTTPHooks{}
}
