package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Path, e.Value, e.Message)
}

// Validate checks every setting and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, path string, value any, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
		}
	}
	positive := func(path string, v int) {
		check(v > 0, path, v, "must be positive")
	}

	positive("tokens.prefix", c.Tokens.Prefix)
	positive("tokens.suffix", c.Tokens.Suffix)
	positive("tokens.rewrite_prefix", c.Tokens.RewritePrefix)
	positive("tokens.rewrite_suffix", c.Tokens.RewriteSuffix)

	positive("region.treesitter_max_lines", c.Region.MaxLines)
	positive("region.fallback_chars_per_line", c.Region.FallbackCharsPerLine)
	positive("region.class_context_max_lines", c.Region.ClassContextMaxLines)

	positive("enrichment.max_edits", c.Enrichment.MaxEdits)
	positive("enrichment.max_views", c.Enrichment.MaxViews)
	positive("enrichment.max_diagnostics", c.Enrichment.MaxDiagnostics)
	positive("enrichment.clipboard_max_chars", c.Enrichment.ClipboardMaxChars)
	positive("enrichment.view_snippet_lines", c.Enrichment.ViewSnippetLines)

	positive("cache.capacity", c.Cache.Capacity)
	check(c.Cache.DedupLines >= 0, "cache.dedup_lines", c.Cache.DedupLines, "must not be negative")

	check(c.Preload.DebounceMS >= 0, "preload.debounce_ms", c.Preload.DebounceMS, "must not be negative")
	positive("preload.max_per_buffer", c.Preload.MaxPerBuffer)
	check(c.Preload.CoverageLines >= 0, "preload.coverage_lines", c.Preload.CoverageLines, "must not be negative")
	positive("preload.max_concurrent", c.Preload.MaxConcurrent)

	check(c.Navigator.VisitedTTLMS >= 0, "navigator.visited_ttl_ms", c.Navigator.VisitedTTLMS, "must not be negative")

	if u, err := url.Parse(c.API.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		check(false, "api.endpoint", c.API.Endpoint, "must be an absolute URL")
	}
	check(c.API.Model != "", "api.model", c.API.Model, "must not be empty")
	check(c.API.Temperature >= 0 && c.API.Temperature <= 2, "api.temperature", c.API.Temperature, "must be between 0 and 2")
	positive("api.max_tokens", c.API.MaxTokens)
	check(c.API.TimeoutMS >= 0, "api.timeout_ms", c.API.TimeoutMS, "must not be negative")
	check(c.API.RequestsPerSecond >= 0, "api.requests_per_second", c.API.RequestsPerSecond, "must not be negative")

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		check(false, "logging.format", c.Logging.Format, "must be json or console")
	}

	return errors.Join(errs...)
}
