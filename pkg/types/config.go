// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubgrab/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for the CRISTIN registry client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// PersonBaseURL is the persons search endpoint (v1 API).
	PersonBaseURL string `json:"person_base_url" yaml:"person_base_url"`

	// ResultsBaseURL is the publication records endpoint (ws API).
	ResultsBaseURL string `json:"results_base_url" yaml:"results_base_url"`

	// Workers bounds the number of concurrent author queries (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// MaxRetries is the retry budget for rate-limited or failing
	// requests (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// PerPage is the page size requested from paginated endpoints
	// (default 50).
	PerPage int `json:"per_page" yaml:"per_page"`
}

// CacheConfig holds settings for the on-disk response cache.
type CacheConfig struct {
	// Dir is the cache directory. The SQLite database lives inside it.
	Dir string `json:"dir" yaml:"dir"`

	// Disabled turns the cache off entirely; every run hits the network.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// RenderConfig holds settings for the HTML renderer.
type RenderConfig struct {
	// Title is the HTML document title.
	Title string `json:"title" yaml:"title"`

	// CategoryOrder fixes the display order of hovedkategori codes.
	// Codes not listed here sort after the listed ones, alphabetically.
	CategoryOrder []string `json:"category_order" yaml:"category_order"`

	// CitationTemplate overrides the citation line template. Empty
	// selects the built-in format.
	CitationTemplate string `json:"citation_template" yaml:"citation_template"`
}

// Config groups all component configurations for one CLI invocation.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Render   RenderConfig   `json:"render" yaml:"render"`
}
