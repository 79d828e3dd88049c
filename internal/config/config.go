// Package config loads engine configuration with the usual precedence:
// flags over environment over config file over defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/risk"
)

// Config holds all tunables for the analysis engine and CLI.
type Config struct {
	Workers       int    `koanf:"workers"`         // parse worker pool size; 0 = NumCPU
	FileTimeoutMS int    `koanf:"file_timeout_ms"` // per-file parse budget
	CacheSize     int    `koanf:"cache_size"`      // content cache capacity (entries)
	JobDB         string `koanf:"job_db"`          // SQLite path for job history; empty disables
	RiskScript    string `koanf:"risk_script"`     // Risor risk expression file; empty = weighted scorer
	RecommendURL  string `koanf:"recommend_url"`   // recommendation service base URL; empty disables
	RecommendKey  string `koanf:"recommend_key"`
	Verbose       bool   `koanf:"verbose"`

	Risk risk.Weights `koanf:"risk"`
}

// Load merges defaults, codescope.toml, CODESCOPE_* environment
// variables, and flags. Priority: flags > env > file > defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"workers":         0,
		"file_timeout_ms": 10000,
		"cache_size":      cacheSizeDefault,
		"job_db":          "",
		"risk_script":     "",
		"recommend_url":   "",
		"recommend_key":   "",
		"verbose":         false,
		"risk": map[string]interface{}{
			"complexity":      risk.DefaultWeights.Complexity,
			"maintainability": risk.DefaultWeights.Maintainability,
			"fan_in":          risk.DefaultWeights.FanIn,
			"fan_out":         risk.DefaultWeights.FanOut,
		},
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Optional config file; absence is not an error.
	_ = k.Load(file.Provider("codescope.toml"), toml.Parser())

	// CODESCOPE_FILE_TIMEOUT_MS=5000 → file_timeout_ms. A single
	// underscore is the key separator; nested risk weights use the
	// RISK_ prefix (CODESCOPE_RISK_FAN_IN).
	if err := k.Load(env.Provider("CODESCOPE_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if f != nil {
		p := posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			if !fl.Changed {
				return "", nil
			}
			return flagKey(fl.Name), posflag.FlagVal(f, fl)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

const cacheSizeDefault = 4096

// flagKey maps a dashed flag name to its config key: --file-timeout-ms
// becomes file_timeout_ms, --risk-fan-in becomes risk.fan_in.
func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if rest, ok := strings.CutPrefix(key, "risk_"); ok {
		return "risk." + rest
	}
	return key
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "CODESCOPE_"))
	if rest, ok := strings.CutPrefix(key, "risk_"); ok {
		return "risk." + rest
	}
	return key
}

// mapProvider serves a plain map as a koanf provider for defaults.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
