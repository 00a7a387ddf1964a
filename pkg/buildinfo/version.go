// Package buildinfo holds version metadata injected at link time:
//
//	go build -ldflags "-X github.com/matzehuels/hovercard/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/hovercard/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/hovercard/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/hovercard
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies API requests made by this build.
func UserAgent() string {
	return "hovercard/" + Version
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
