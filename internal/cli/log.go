package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hovercard/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Decorated 12 references (41ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports pipeline events at debug level.
type logHooks struct {
	logger *log.Logger
}

func installLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetScanHooks(h)
	observability.SetEntityHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnScanStart(_ context.Context, full bool) {
	h.logger.Debug("scan start", "full", full)
}

func (h logHooks) OnScanComplete(_ context.Context, full bool, targets int, d time.Duration) {
	h.logger.Debug("scan complete", "full", full, "targets", targets, "duration", d.Round(time.Microsecond))
}

func (h logHooks) OnScanDropped(_ context.Context, reason string) {
	h.logger.Debug("scan dropped", "reason", reason)
}

func (h logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("record cache hit", "kind", kind)
}

func (h logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("record cache miss", "kind", kind)
}

func (h logHooks) OnFetchComplete(_ context.Context, kind, name string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "kind", kind, "fetch", name, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("fetched", "kind", kind, "fetch", name, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
