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

// FileConfig is the on-disk configuration schema (YAML or JSON).
type FileConfig struct {
    Input   string `yaml:"input" json:"input"`
    Output  string `yaml:"output" json:"output"`
    Verbose bool   `yaml:"verbose" json:"verbose"`
    Site    string `yaml:"site" json:"site"`

    Images struct {
        // Delay between downloads in seconds.
        Delay      float64       `yaml:"delay" json:"delay"`
        NoDownload bool          `yaml:"noDownload" json:"noDownload"`
        UserAgent  string        `yaml:"userAgent" json:"userAgent"`
        Timeout    time.Duration `yaml:"timeout" json:"timeout"`
        Attempts   int           `yaml:"attempts" json:"attempts"`
    } `yaml:"images" json:"images"`

    Origin struct {
        // Milliseconds since the epoch, as reported by a browser.
        Timestamp *int64 `yaml:"timestamp" json:"timestamp"`
        // Minutes west of UTC (JavaScript getTimezoneOffset).
        Timezone *int `yaml:"timezone" json:"timezone"`
    } `yaml:"origin" json:"origin"`

    Cache struct {
        Dir    string        `yaml:"dir" json:"dir"`
        MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear  bool          `yaml:"clear" json:"clear"`
    } `yaml:"cache" json:"cache"`
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

// ApplyFileConfig overlays values from fc onto fields of cfg that are still
// unset or at their flag default, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if (cfg.InputDir == "" || cfg.InputDir == DefaultInputDir) && fc.Input != "" { cfg.InputDir = fc.Input }
    if (cfg.OutputDir == "" || cfg.OutputDir == DefaultOutputDir) && fc.Output != "" { cfg.OutputDir = fc.Output }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
    if (cfg.SiteOrigin == "" || cfg.SiteOrigin == DefaultSiteOrigin) && fc.Site != "" { cfg.SiteOrigin = fc.Site }

    if cfg.Delay == 0 && fc.Images.Delay > 0 { cfg.Delay = secondsToDuration(fc.Images.Delay) }
    if !cfg.NoDownload && fc.Images.NoDownload { cfg.NoDownload = true }
    if (cfg.UserAgent == "" || cfg.UserAgent == DefaultUserAgent) && fc.Images.UserAgent != "" { cfg.UserAgent = fc.Images.UserAgent }
    if (cfg.HTTPTimeout == 0 || cfg.HTTPTimeout == DefaultHTTPTimeout) && fc.Images.Timeout > 0 { cfg.HTTPTimeout = fc.Images.Timeout }
    if (cfg.MaxAttempts == 0 || cfg.MaxAttempts == DefaultMaxAttempts) && fc.Images.Attempts > 0 { cfg.MaxAttempts = fc.Images.Attempts }

    if !cfg.OriginTimestampSet && fc.Origin.Timestamp != nil {
        cfg.OriginTimestampMillis = *fc.Origin.Timestamp
        cfg.OriginTimestampSet = true
    }
    if !cfg.OriginTimezoneSet && fc.Origin.Timezone != nil {
        cfg.OriginTimezoneMinutes = *fc.Origin.Timezone
        cfg.OriginTimezoneSet = true
    }

    if cfg.CacheDir == "" && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.InputDir) == "" {
        return errors.New("config: input directory is required")
    }
    if strings.TrimSpace(cfg.OutputDir) == "" {
        return errors.New("config: output directory is required")
    }
    if cfg.Delay < 0 {
        return errors.New("config: delay must not be negative")
    }
    if cfg.MaxAttempts < 0 || cfg.HTTPTimeout < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    return nil
}

func secondsToDuration(s float64) time.Duration {
    return time.Duration(s * float64(time.Second))
}
