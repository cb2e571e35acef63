package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = strings.TrimSpace(os.Getenv(envKey))
		}
	}
	setString(&cfg.URL, "CETD_URL")
	setString(&cfg.FilePath, "CETD_FILE")
	setString(&cfg.OutputPath, "CETD_OUTPUT")
	setString(&cfg.Format, "CETD_FORMAT")
	setString(&cfg.UserAgent, "CETD_USER_AGENT")
	setString(&cfg.Scorer, "CETD_SCORER")
	setString(&cfg.Root, "CETD_ROOT")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.Addr, "CETD_ADDR")

	if len(cfg.LinkTags) == 0 {
		cfg.LinkTags = splitList(os.Getenv("CETD_LINK_TAGS"))
	}

	// Optional durations
	if cfg.CacheMaxAge == 0 {
		if d, ok := envDuration("CACHE_MAX_AGE"); ok {
			cfg.CacheMaxAge = d
		}
	}
	if cfg.Timeout == 0 {
		if d, ok := envDuration("CETD_TIMEOUT"); ok {
			cfg.Timeout = d
		}
	}
	if cfg.MaxChars == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CETD_MAX_CHARS"))); err == nil && n > 0 {
			cfg.MaxChars = n
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.KeepLinks, "CETD_KEEP_LINKS")
	setBool(&cfg.DropConsent, "CETD_DROP_CONSENT")
	setBool(&cfg.Robots, "CETD_ROBOTS")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. Env this way wins over a config
// file; flags are re-applied afterwards by MergeExplicit.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.URL, "CETD_URL")
	setString(&cfg.FilePath, "CETD_FILE")
	setString(&cfg.OutputPath, "CETD_OUTPUT")
	setString(&cfg.Format, "CETD_FORMAT")
	setString(&cfg.UserAgent, "CETD_USER_AGENT")
	setString(&cfg.Scorer, "CETD_SCORER")
	setString(&cfg.Root, "CETD_ROOT")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.Addr, "CETD_ADDR")

	if tags := splitList(os.Getenv("CETD_LINK_TAGS")); len(tags) > 0 {
		cfg.LinkTags = tags
	}
	if d, ok := envDuration("CACHE_MAX_AGE"); ok {
		cfg.CacheMaxAge = d
	}
	if d, ok := envDuration("CETD_TIMEOUT"); ok {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CETD_MAX_CHARS"))); err == nil && n >= 0 {
		cfg.MaxChars = n
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.KeepLinks, "CETD_KEEP_LINKS")
	setBool(&cfg.DropConsent, "CETD_DROP_CONSENT")
	setBool(&cfg.Robots, "CETD_ROBOTS")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
