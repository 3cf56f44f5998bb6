// Package config defines the engine configuration, its defaults and how it is
// loaded from files and the environment.
package config

import (
	"time"
)

// Config is the complete engine configuration.
type Config struct {
	Tokens     Tokens     `toml:"tokens" yaml:"tokens"`
	Region     Region     `toml:"region" yaml:"region"`
	Enrichment Enrichment `toml:"enrichment" yaml:"enrichment"`
	Cache      Cache      `toml:"cache" yaml:"cache"`
	Preload    Preload    `toml:"preload" yaml:"preload"`
	Navigator  Navigator  `toml:"navigator" yaml:"navigator"`
	API        API        `toml:"api" yaml:"api"`
	Logging    Logging    `toml:"logging" yaml:"logging"`
}

// Tokens are the prompt section budgets, in tokens.
type Tokens struct {
	Prefix        int `toml:"prefix" yaml:"prefix"`
	Suffix        int `toml:"suffix" yaml:"suffix"`
	RewritePrefix int `toml:"rewrite_prefix" yaml:"rewrite_prefix"`
	RewriteSuffix int `toml:"rewrite_suffix" yaml:"rewrite_suffix"`
}

// Region controls editable region selection.
type Region struct {
	UseTreesitter        bool `toml:"use_treesitter" yaml:"use_treesitter"`
	MaxLines             int  `toml:"treesitter_max_lines" yaml:"treesitter_max_lines"`
	PreferFunction       bool `toml:"prefer_function" yaml:"prefer_function"`
	FallbackCharsPerLine int  `toml:"fallback_chars_per_line" yaml:"fallback_chars_per_line"`
	ClassContextMaxLines int  `toml:"class_context_max_lines" yaml:"class_context_max_lines"`
}

// FallbackLines is the window size used when no syntax tree is available:
// the rewrite budget spread over lines of FallbackCharsPerLine characters,
// bounded by MaxLines.
func (c Config) FallbackLines() int {
	chars := (c.Tokens.RewritePrefix + c.Tokens.RewriteSuffix) * 4
	n := chars / max(c.Region.FallbackCharsPerLine, 1)
	return max(min(n, c.Region.MaxLines), 1)
}

// Enrichment controls the extra prompt context.
type Enrichment struct {
	Enabled           bool `toml:"enabled" yaml:"enabled"`
	MaxEdits          int  `toml:"max_edits" yaml:"max_edits"`
	MaxViews          int  `toml:"max_views" yaml:"max_views"`
	MaxDiagnostics    int  `toml:"max_diagnostics" yaml:"max_diagnostics"`
	ClipboardMaxChars int  `toml:"clipboard_max_chars" yaml:"clipboard_max_chars"`
	ViewSnippetLines  int  `toml:"view_snippet_lines" yaml:"view_snippet_lines"`
}

// Cache bounds the completion cache.
type Cache struct {
	Capacity   int `toml:"capacity" yaml:"capacity"`
	DedupLines int `toml:"dedup_lines" yaml:"dedup_lines"`
}

// Preload controls diagnostic prefetching.
type Preload struct {
	Enabled       bool `toml:"enabled" yaml:"enabled"`
	DebounceMS    int  `toml:"debounce_ms" yaml:"debounce_ms"`
	MaxPerBuffer  int  `toml:"max_per_buffer" yaml:"max_per_buffer"`
	CoverageLines int  `toml:"coverage_lines" yaml:"coverage_lines"`
	MaxConcurrent int  `toml:"max_concurrent" yaml:"max_concurrent"`
}

// Debounce returns the debounce delay.
func (p Preload) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// Navigator controls diagnostic navigation.
type Navigator struct {
	VisitedTTLMS int `toml:"visited_ttl_ms" yaml:"visited_ttl_ms"`
}

// VisitedTTL returns how long a visited diagnostic is skipped.
func (n Navigator) VisitedTTL() time.Duration {
	return time.Duration(n.VisitedTTLMS) * time.Millisecond
}

// API configures the completion endpoint.
type API struct {
	Endpoint          string  `toml:"endpoint" yaml:"endpoint"`
	Model             string  `toml:"model" yaml:"model"`
	Temperature       float64 `toml:"temperature" yaml:"temperature"`
	MaxTokens         int     `toml:"max_tokens" yaml:"max_tokens"`
	User              string  `toml:"user" yaml:"user"`
	KeyEnv            string  `toml:"key_env" yaml:"key_env"`
	TimeoutMS         int     `toml:"timeout_ms" yaml:"timeout_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`

	// Key is the resolved bearer token. It is never read from files.
	Key string `toml:"-" yaml:"-"`
}

// Timeout returns the per-request timeout.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// Logging configures the logger.
type Logging struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Tokens: Tokens{
			Prefix:        1500,
			Suffix:        1000,
			RewritePrefix: 600,
			RewriteSuffix: 400,
		},
		Region: Region{
			UseTreesitter:        true,
			MaxLines:             50,
			PreferFunction:       true,
			FallbackCharsPerLine: 10,
			ClassContextMaxLines: 10,
		},
		Enrichment: Enrichment{
			Enabled:           true,
			MaxEdits:          10,
			MaxViews:          5,
			MaxDiagnostics:    5,
			ClipboardMaxChars: 2000,
			ViewSnippetLines:  20,
		},
		Cache: Cache{
			Capacity:   20,
			DedupLines: 5,
		},
		Preload: Preload{
			Enabled:       true,
			DebounceMS:    2000,
			MaxPerBuffer:  3,
			CoverageLines: 3,
			MaxConcurrent: 4,
		},
		Navigator: Navigator{
			VisitedTTLMS: 30000,
		},
		API: API{
			Endpoint:          "http://127.0.0.1:8080/v1/completions",
			Model:             "tab-completion",
			Temperature:       0.1,
			MaxTokens:         2048,
			KeyEnv:            "AMP_API_KEY",
			TimeoutMS:         30000,
			RequestsPerSecond: 5,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}
