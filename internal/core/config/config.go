// Package config handles loading and merging TecHub configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// GitHub configures API access.
	GitHub GitHubConfig `yaml:"github"`

	// Gemini configures the LLM used for card synthesis.
	Gemini GeminiConfig `yaml:"gemini"`

	// Storage configures where artifacts live.
	Storage StorageConfig `yaml:"storage"`

	// Screenshot configures card capture.
	Screenshot ScreenshotConfig `yaml:"screenshot"`

	// Optimize configures image re-encoding.
	Optimize OptimizeConfig `yaml:"optimize"`

	// Eligibility configures the publication gate.
	Eligibility EligibilityConfig `yaml:"eligibility"`

	// Preset is a stage-selection preset name (e.g. "full-generate").
	Preset string `yaml:"preset,omitempty"`

	// Stages is a custom stage id list (overrides Preset).
	Stages []string `yaml:"stages,omitempty"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token string `yaml:"token"`

	// MaxRepos caps how many owned repos the fetch stage pages through.
	MaxRepos int `yaml:"max_repos,omitempty"`
}

// GeminiConfig holds Gemini settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model,omitempty"`
}

// StorageConfig holds artifact storage settings.
type StorageConfig struct {
	// DataDir is the local root for profiles, avatars and captures.
	DataDir string `yaml:"data_dir"`

	// Bucket enables object-storage upload when set.
	Bucket string `yaml:"bucket,omitempty"`

	// CDNDomain overrides the public URL host for uploaded objects.
	CDNDomain string `yaml:"cdn_domain,omitempty"`
}

// ScreenshotConfig holds capture settings.
type ScreenshotConfig struct {
	// ToolPath is the headless-browser binary. Empty means native render.
	ToolPath string `yaml:"tool_path,omitempty"`

	// Host is the base URL serving card previews.
	Host string `yaml:"host,omitempty"`

	// Variants is the default variant set for a full run.
	Variants []string `yaml:"variants,omitempty"`

	// MinBytes rejects near-empty capture files as failed.
	MinBytes int64 `yaml:"min_bytes,omitempty"`
}

// OptimizeConfig holds re-encode settings.
type OptimizeConfig struct {
	// Native selects the in-process encoder over the CLI tool.
	Native bool `yaml:"native"`

	// ToolPath is the CLI re-encoder (ImageMagick-style convert binary).
	ToolPath string `yaml:"tool_path,omitempty"`

	// Quality is the JPEG quality for re-encoded captures.
	Quality int `yaml:"quality,omitempty"`
}

// EligibilityConfig holds publication-gate settings.
type EligibilityConfig struct {
	// Threshold is the minimum signal score for eligibility.
	Threshold int `yaml:"threshold,omitempty"`
}

// Load reads a config file from the given path and expands environment
// variables in its content.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".techub.yaml",
		".techub.yml",
		".github/techub.yaml",
		".github/techub.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// ApplyDefaults sets default values for unset fields and pulls API keys from
// the environment when the file left them empty.
func (c *Config) ApplyDefaults() {
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHub.MaxRepos == 0 {
		c.GitHub.MaxRepos = 200
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash-lite"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Screenshot.Host == "" {
		c.Screenshot.Host = "http://localhost:3000"
	}
	if len(c.Screenshot.Variants) == 0 {
		c.Screenshot.Variants = []string{"og", "card", "simple", "banner"}
	}
	if c.Screenshot.MinBytes == 0 {
		c.Screenshot.MinBytes = 1024
	}
	if c.Optimize.Quality == 0 {
		c.Optimize.Quality = 85
	}
	if c.Eligibility.Threshold == 0 {
		c.Eligibility.Threshold = 3
	}
}
