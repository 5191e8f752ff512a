// Package cliconfig loads collineage's CLI configuration from a config
// file, environment variables, and command-line flags, in that ascending
// order of precedence — the same layering the teacher's internal/cli/config
// package builds on top of koanf.
package cliconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultSourceType = "postgres"
	DefaultSchema     = ""
	DefaultOutput     = "json"
)

// Config holds the settings needed to resolve lineage for a SQL file
// against a live schema source.
type Config struct {
	SourceType string `koanf:"source_type"` // postgres | duckdb | sqlite
	DSN        string `koanf:"dsn"`         // connection string or file path
	Schema     string `koanf:"schema"`      // schema/namespace to introspect
	Output     string `koanf:"output"`      // json | text
	Verbose    bool   `koanf:"verbose"`
}

// Load builds a Config from (in ascending precedence) built-in defaults,
// cfgFile if non-empty, COLLINEAGE_-prefixed environment variables, and any
// flags the caller has already parsed into flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source_type": DefaultSourceType,
		"schema":      DefaultSchema,
		"output":      DefaultOutput,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("cliconfig: load defaults: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("cliconfig: read config file %s: %w", cfgFile, err)
			}
		}
	}

	if err := k.Load(env.Provider("COLLINEAGE_", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("cliconfig: load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("cliconfig: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cliconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}

func envKeyReplacer(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out[i] = c - 'A' + 'a'
		case c == '_':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)[len("collineage_"):]
}
