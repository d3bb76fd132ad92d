// Package config resolves the runtime settings of the kuberos CLI from the
// environment.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultConfigPath is used when KUBEROS_CONFIG is not set.
const DefaultConfigPath = "~/.kuberos/config"

// Settings are the runtime settings read from KUBEROS_* environment
// variables. Command-line flags override them after loading.
type Settings struct {
	ConfigPath     string        `env:"KUBEROS_CONFIG"`
	LogLevel       string        `env:"KUBEROS_LOG_LEVEL, default=warn"`
	Output         string        `env:"KUBEROS_OUTPUT, default=table"`
	AuthTimeout    time.Duration `env:"KUBEROS_AUTH_TIMEOUT, default=3s"`
	RequestTimeout time.Duration `env:"KUBEROS_REQUEST_TIMEOUT, default=0s"`
}

// LoadWith reads Settings through the given lookuper: envconfig.OsLookuper
// for the process environment, an envconfig.MapLookuper in tests.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Settings, error) {
	var s Settings
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if s.AuthTimeout <= 0 {
		return nil, fmt.Errorf("KUBEROS_AUTH_TIMEOUT must be positive, got %s", s.AuthTimeout)
	}
	if s.RequestTimeout < 0 {
		return nil, fmt.Errorf("KUBEROS_REQUEST_TIMEOUT must not be negative, got %s", s.RequestTimeout)
	}
	return &s, nil
}

// ResolvePath returns the configuration file location: the KUBEROS_CONFIG
// override when present, DefaultConfigPath otherwise. A leading "~" is
// expanded to the user's home directory.
func (s *Settings) ResolvePath() (string, error) {
	p := s.ConfigPath
	if p == "" {
		p = DefaultConfigPath
	}
	return ExpandHome(p)
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
