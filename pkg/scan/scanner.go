// Package scan drives extraction passes over a page: one full pass at
// startup, then incremental passes over mutated subtrees.
package scan

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/observability"
)

// Scanner runs one extraction pass.
type Scanner struct {
	reg    *extract.Registry
	res    *extract.Resolver
	logger *log.Logger
}

// NewScanner creates a scanner recording outcomes in markers.
func NewScanner(reg *extract.Registry, markers *extract.Markers, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{reg: reg, res: extract.NewResolver(reg, markers), logger: logger}
}

// Markers returns the scanner's marker table.
func (s *Scanner) Markers() *extract.Markers { return s.res.Markers() }

// Pass evaluates every rule against root. Rules run in priority order and
// elements are visited in document order.
func (s *Scanner) Pass(ctx context.Context, root *html.Node, pc *extract.PageContext, full bool) []extract.Target {
	hooks := observability.Scan()
	hooks.OnScanStart(ctx, full)
	start := time.Now()

	var targets []extract.Target
	for _, rule := range s.reg.Rules() {
		for _, n := range rule.Find(root) {
			targets = append(targets, s.res.Resolve(n, rule, pc)...)
		}
	}

	hooks.OnScanComplete(ctx, full, len(targets), time.Since(start))
	s.logger.Debug("scan pass", "full", full, "targets", len(targets), "elapsed", time.Since(start))
	return targets
}
