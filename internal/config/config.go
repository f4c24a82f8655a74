// Package config loads hmem's typed configuration (§6). It is consumed as a
// value by the rest of the engine; parsing the YAML/TOML/env layers is an
// ambient concern, not part of the memory engine's 3,500-line budget.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// BulkReadV2 holds the selector's per-prefix slot sizes (§4.5, §6).
type BulkReadV2 struct {
	TopNewestCount   int `mapstructure:"topNewestCount"`
	TopAccessCount   int `mapstructure:"topAccessCount"`
	TopObsoleteCount int `mapstructure:"topObsoleteCount"`
}

// Config is the typed configuration value every engine component receives.
type Config struct {
	MaxCharsPerLevel   []int             `mapstructure:"maxCharsPerLevel"`
	MaxL1Chars         int               `mapstructure:"maxL1Chars"`
	MaxLnChars         int               `mapstructure:"maxLnChars"`
	MaxDepth           int               `mapstructure:"maxDepth"`
	DefaultReadLimit   int               `mapstructure:"defaultReadLimit"`
	MaxTitleChars      int               `mapstructure:"maxTitleChars"`
	AccessCountTopN    int               `mapstructure:"accessCountTopN"`
	Prefixes           map[string]string `mapstructure:"prefixes"`
	PrefixDescriptions map[string]string `mapstructure:"prefixDescriptions"`
	BulkReadV2         BulkReadV2        `mapstructure:"bulkReadV2"`
}

// Defaults mirrors the hard-coded viper defaults bd sets in its own
// Initialize(), scaled to hmem's keys.
func Defaults() *Config {
	return &Config{
		MaxL1Chars:         2000,
		MaxLnChars:         500,
		MaxDepth:           6,
		DefaultReadLimit:   50,
		MaxTitleChars:      80,
		AccessCountTopN:    5,
		Prefixes:           map[string]string{},
		PrefixDescriptions: map[string]string{},
		BulkReadV2: BulkReadV2{
			TopNewestCount:   3,
			TopAccessCount:   3,
			TopObsoleteCount: 3,
		},
	}
}

var v *viper.Viper

// Load locates and parses config.yaml the way bd's Initialize() does:
// project .hmem/config.yaml found by walking up from cwd, then
// $XDG_CONFIG_HOME/hmem/config.yaml, then ~/.hmem/config.yaml. Environment
// variables (HMEM_*) take precedence over the file; defaults fill anything
// unset. projectDir, when non-empty, anchors the upward walk instead of the
// process cwd (the adapter passes in the project directory it was given).
func Load(projectDir string) (*Config, error) {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	startDir := projectDir
	if startDir == "" {
		cwd, err := os.Getwd()
		if err == nil {
			startDir = cwd
		}
	}
	if startDir != "" {
		for dir := startDir; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			candidate := filepath.Join(dir, ".hmem", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
				break
			}
		}
	}

	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			candidate := filepath.Join(configDir, "hmem", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	if !configFileSet {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".hmem", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("HMEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault("maxL1Chars", def.MaxL1Chars)
	v.SetDefault("maxLnChars", def.MaxLnChars)
	v.SetDefault("maxDepth", def.MaxDepth)
	v.SetDefault("defaultReadLimit", def.DefaultReadLimit)
	v.SetDefault("maxTitleChars", def.MaxTitleChars)
	v.SetDefault("accessCountTopN", def.AccessCountTopN)
	v.SetDefault("bulkReadV2.topNewestCount", def.BulkReadV2.TopNewestCount)
	v.SetDefault("bulkReadV2.topAccessCount", def.BulkReadV2.TopAccessCount)
	v.SetDefault("bulkReadV2.topObsoleteCount", def.BulkReadV2.TopObsoleteCount)

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: error reading config file: %w", err)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: error unmarshalling config: %w", err)
	}

	if err := applyPrefixOverlay(cfg, configFileSet, v.ConfigFileUsed()); err != nil {
		return nil, err
	}

	resolveMaxCharsPerLevel(cfg)
	return cfg, nil
}

// applyPrefixOverlay merges prefixes.toml sitting next to config.yaml, for
// deployments that prefer to manage the prefix table outside the main YAML
// (bd ships both a YAML config and TOML templates; hmem reuses the same
// BurntSushi/toml reader for this one overlay file).
func applyPrefixOverlay(cfg *Config, configFileSet bool, configFilePath string) error {
	if !configFileSet {
		return nil
	}
	overlay := filepath.Join(filepath.Dir(configFilePath), "prefixes.toml")
	if _, err := os.Stat(overlay); err != nil {
		return nil
	}

	var parsed struct {
		Prefixes           map[string]string `toml:"prefixes"`
		PrefixDescriptions map[string]string `toml:"prefix_descriptions"`
	}
	if _, err := toml.DecodeFile(overlay, &parsed); err != nil {
		return fmt.Errorf("config: error reading prefixes.toml overlay: %w", err)
	}
	for k, val := range parsed.Prefixes {
		cfg.Prefixes[k] = val
	}
	for k, val := range parsed.PrefixDescriptions {
		cfg.PrefixDescriptions[k] = val
	}
	return nil
}

// resolveMaxCharsPerLevel implements the linear-interpolation shortcut (§6):
// an explicit MaxCharsPerLevel array always wins; otherwise the per-level
// budget is interpolated between MaxL1Chars and MaxLnChars across MaxDepth
// levels.
func resolveMaxCharsPerLevel(cfg *Config) {
	if len(cfg.MaxCharsPerLevel) > 0 {
		return
	}
	levels := cfg.MaxDepth
	if levels < 1 {
		levels = 1
	}
	out := make([]int, levels)
	if levels == 1 {
		out[0] = cfg.MaxL1Chars
	} else {
		for i := 0; i < levels; i++ {
			frac := float64(i) / float64(levels-1)
			out[i] = cfg.MaxL1Chars + int(frac*float64(cfg.MaxLnChars-cfg.MaxL1Chars))
		}
	}
	cfg.MaxCharsPerLevel = out
}

// CharsForDepth returns the character budget for 1-indexed depth d, clamping
// to the last configured level for anything deeper (writes that deep are
// flattened before this matters; see internal/tree).
func (c *Config) CharsForDepth(d int) int {
	if d < 1 {
		d = 1
	}
	idx := d - 1
	if idx >= len(c.MaxCharsPerLevel) {
		idx = len(c.MaxCharsPerLevel) - 1
	}
	if idx < 0 {
		return c.MaxL1Chars
	}
	return c.MaxCharsPerLevel[idx]
}

// ConfigFileUsed returns the path Load resolved its config file from, or
// "" if no call to Load has happened yet or none was found. Callers use it
// to hand WatchFile the same path Load itself settled on.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}
