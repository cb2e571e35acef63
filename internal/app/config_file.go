package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Input struct {
		URL  string `yaml:"url" json:"url"`
		File string `yaml:"file" json:"file"`
	} `yaml:"input" json:"input"`

	Output struct {
		Path     string `yaml:"path" json:"path"`
		Format   string `yaml:"format" json:"format"`
		Footer   bool   `yaml:"footer" json:"footer"`
		Manifest bool   `yaml:"manifest" json:"manifest"`
	} `yaml:"output" json:"output"`

	Extract struct {
		Separator   *string  `yaml:"separator" json:"separator"`
		KeepLinks   bool     `yaml:"keepLinks" json:"keepLinks"`
		Scorer      string   `yaml:"scorer" json:"scorer"`
		LinkTags    []string `yaml:"linkTags" json:"linkTags"`
		Root        string   `yaml:"root" json:"root"`
		DropConsent bool     `yaml:"dropConsent" json:"dropConsent"`
		MaxChars    int      `yaml:"maxChars" json:"maxChars"`
	} `yaml:"extract" json:"extract"`

	Fetch struct {
		UserAgent    string        `yaml:"userAgent" json:"userAgent"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		MaxAttempts  int           `yaml:"maxAttempts" json:"maxAttempts"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
		Robots       bool          `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxCount    int           `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`

	Dump    bool `yaml:"dump" json:"dump"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.URL == "" && fc.Input.URL != "" {
		cfg.URL = fc.Input.URL
	}
	if cfg.FilePath == "" && fc.Input.File != "" {
		cfg.FilePath = fc.Input.File
	}

	if cfg.OutputPath == "" && fc.Output.Path != "" {
		cfg.OutputPath = fc.Output.Path
	}
	if (cfg.Format == "" || cfg.Format == FormatText) && fc.Output.Format != "" {
		cfg.Format = fc.Output.Format
	}
	if !cfg.Footer && fc.Output.Footer {
		cfg.Footer = true
	}
	if !cfg.Manifest && fc.Output.Manifest {
		cfg.Manifest = true
	}

	// A pointer keeps an explicit empty separator distinguishable from unset.
	if cfg.Separator == "\n" && fc.Extract.Separator != nil {
		cfg.Separator = *fc.Extract.Separator
	}
	if !cfg.KeepLinks && fc.Extract.KeepLinks {
		cfg.KeepLinks = true
	}
	if (cfg.Scorer == "" || cfg.Scorer == ScorerDefault) && fc.Extract.Scorer != "" {
		cfg.Scorer = fc.Extract.Scorer
	}
	if len(cfg.LinkTags) == 0 && len(fc.Extract.LinkTags) > 0 {
		cfg.LinkTags = append([]string{}, fc.Extract.LinkTags...)
	}
	if (cfg.Root == "" || cfg.Root == DefaultRoot) && fc.Extract.Root != "" {
		cfg.Root = fc.Extract.Root
	}
	if !cfg.DropConsent && fc.Extract.DropConsent {
		cfg.DropConsent = true
	}
	if cfg.MaxChars == 0 && fc.Extract.MaxChars > 0 {
		cfg.MaxChars = fc.Extract.MaxChars
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if cfg.MaxAttempts == 0 && fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if cfg.MaxBodyBytes == 0 && fc.Fetch.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Fetch.MaxBodyBytes
	}
	if !cfg.Robots && fc.Fetch.Robots {
		cfg.Robots = true
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxCount == 0 && fc.Cache.MaxCount > 0 {
		cfg.CacheMaxCount = fc.Cache.MaxCount
	}

	if (cfg.Addr == "" || cfg.Addr == DefaultAddr) && fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if !cfg.Dump && fc.Dump {
		cfg.Dump = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ErrConfig marks configuration errors; the CLI exits with status 1.
var ErrConfig = errors.New("config")

// ValidateConfig performs schema validation for a CLI run. The server
// binary validates with ValidateServerConfig instead.
func ValidateConfig(cfg Config) error {
	hasURL := strings.TrimSpace(cfg.URL) != ""
	hasFile := strings.TrimSpace(cfg.FilePath) != ""
	switch {
	case hasURL && hasFile:
		return fmt.Errorf("%w: use either -url or -file, not both", ErrConfig)
	case !hasURL && !hasFile:
		return fmt.Errorf("%w: one of -url or -file is required", ErrConfig)
	}
	if cfg.Manifest && strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("%w: -manifest requires -output", ErrConfig)
	}
	return validateCommon(cfg)
}

// ValidateServerConfig checks the settings the HTTP server uses.
func ValidateServerConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("%w: listen address is required", ErrConfig)
	}
	return validateCommon(cfg)
}

func validateCommon(cfg Config) error {
	if _, err := ParseFormat(cfg.Format); err != nil {
		return err
	}
	if _, err := ScorerByName(cfg.Scorer); err != nil {
		return err
	}
	if cfg.MaxChars < 0 || cfg.MaxAttempts < 0 || cfg.MaxBodyBytes < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxCount < 0 {
		return fmt.Errorf("%w: negative limits are not allowed", ErrConfig)
	}
	if cfg.Timeout < 0 || cfg.CacheMaxAge < 0 {
		return fmt.Errorf("%w: negative durations are not allowed", ErrConfig)
	}
	return nil
}
