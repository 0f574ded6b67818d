package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig fills fields of cfg that are unset or at their flag
// default from environment variables. Explicit flag values win over env; call
// it before ApplyFileConfig so env in turn wins over the config file.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, def string, keys ...string) {
        if *dst != "" && *dst != def { return }
        for _, k := range keys {
            if v := strings.TrimSpace(os.Getenv(k)); v != "" {
                *dst = v
                return
            }
        }
    }
    setString(&cfg.InputDir, DefaultInputDir, "QUORACOOK_INPUT_DIR")
    setString(&cfg.OutputDir, DefaultOutputDir, "QUORACOOK_OUTPUT_DIR")
    setString(&cfg.SiteOrigin, DefaultSiteOrigin, "QUORACOOK_SITE")
    setString(&cfg.UserAgent, DefaultUserAgent, "QUORACOOK_USER_AGENT")
    setString(&cfg.CacheDir, "", "CACHE_DIR")

    if cfg.Delay == 0 {
        if s := strings.TrimSpace(os.Getenv("DOWNLOAD_DELAY")); s != "" {
            if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
                cfg.Delay = secondsToDuration(f)
            }
        }
    }
    if cfg.CacheMaxAge == 0 {
        if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
            if d, err := time.ParseDuration(s); err == nil {
                cfg.CacheMaxAge = d
            }
        }
    }

    if !cfg.OriginTimestampSet {
        if s := strings.TrimSpace(os.Getenv("ORIGIN_TIMESTAMP")); s != "" {
            if n, err := strconv.ParseInt(s, 10, 64); err == nil {
                cfg.OriginTimestampMillis = n
                cfg.OriginTimestampSet = true
            }
        }
    }
    if !cfg.OriginTimezoneSet {
        if s := strings.TrimSpace(os.Getenv("ORIGIN_TIMEZONE")); s != "" {
            if n, err := strconv.Atoi(s); err == nil {
                cfg.OriginTimezoneMinutes = n
                cfg.OriginTimezoneSet = true
            }
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
        case "1", "true", "yes", "on":
            *dst = true
        }
    }
    setBool(&cfg.NoDownload, "NO_DOWNLOAD")
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
}
