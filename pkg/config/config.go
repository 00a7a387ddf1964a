// Package config holds the user-configurable options.
//
// Options come from three layers, later layers winning:
//
//  1. [Default]
//  2. a TOML file (~/.config/hovercard/config.toml)
//  3. the copy persisted in the key-value store by [Save]
//
// Example config.toml:
//
//	delay = "200ms"
//	readme = true
//	disable_projects = false
//	show_self = false
//	side = "top"
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/store"
)

const (
	appName = "hovercard"

	// optionsKey is the store key the options are persisted under.
	optionsKey = "options"

	DefaultDomain  = "github.com"
	DefaultAPIBase = "https://api.github.com"
	DefaultDelay   = 200 * time.Millisecond
	DefaultSide    = SideTop
	DefaultTTL     = 10 * time.Minute
)

// Side is the preferred tooltip placement.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Duration wraps time.Duration so it reads from TOML and JSON as "200ms".
type Duration struct{ time.Duration }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options are the user-configurable settings.
type Options struct {
	Delay           Duration `toml:"delay" json:"delay"`                       // tooltip show delay
	ReadMe          bool     `toml:"readme" json:"readme"`                     // fetch READMEs for repo cards
	DisableProjects bool     `toml:"disable_projects" json:"disable_projects"` // skip project-board pages
	ShowSelf        bool     `toml:"show_self" json:"show_self"`               // decorate the viewer's own references
	Side            Side     `toml:"side" json:"side"`                         // preferred tooltip side
	Domain          string   `toml:"domain" json:"domain"`                     // site host
	APIBase         string   `toml:"api_base" json:"api_base"`                 // REST API root
	CacheTTL        Duration `toml:"cache_ttl" json:"cache_ttl"`               // HTTP response cache ttl, 0 disables
}

// Default returns the built-in defaults.
func Default() Options {
	return Options{
		Delay:    Duration{DefaultDelay},
		ReadMe:   true,
		Side:     DefaultSide,
		Domain:   DefaultDomain,
		APIBase:  DefaultAPIBase,
		CacheTTL: Duration{DefaultTTL},
	}
}

// Validate checks option values.
func (o Options) Validate() error {
	switch o.Side {
	case SideTop, SideRight, SideBottom, SideLeft:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "invalid side %q: use top, right, bottom or left", o.Side)
	}
	if o.Delay.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "delay cannot be negative")
	}
	if o.CacheTTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "cache_ttl cannot be negative")
	}
	if o.Domain == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "domain is required")
	}
	if err := errors.ValidateURL(o.APIBase); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid api_base")
	}
	return nil
}

// LoadFile reads a TOML file on top of the defaults. A missing file is not an
// error.
func LoadFile(path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return opts, nil
	}
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return opts, fmt.Errorf("parse %s: %w", path, err)
	}
	return opts, opts.Validate()
}

// Load overlays the options persisted in s onto base.
func Load(ctx context.Context, s store.Store, base Options) (Options, error) {
	data, hit, err := s.Get(ctx, optionsKey)
	if err != nil {
		return base, fmt.Errorf("read options: %w", err)
	}
	if !hit {
		return base, nil
	}
	opts := base
	if err := json.Unmarshal(data, &opts); err != nil {
		return base, fmt.Errorf("decode options: %w", err)
	}
	return opts, opts.Validate()
}

// Save persists opts to s.
func Save(ctx context.Context, s store.Store, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.Set(ctx, optionsKey, data, 0)
}

// Dir returns the configuration directory using the XDG convention
// (~/.config/hovercard/).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
