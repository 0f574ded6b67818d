package app

import "time"

// Defaults mirror the flag defaults in cmd/quoracook.
const (
	DefaultInputDir    = "./quora-answers"
	DefaultOutputDir   = "./quora-answers-cooked"
	DefaultSiteOrigin  = "http://quora.com"
	DefaultUserAgent   = "quoracook/1.0 (+https://github.com/hyperifyio/quoracook)"
	DefaultHTTPTimeout = 60 * time.Second
	DefaultMaxAttempts = 2
)

// Config holds runtime configuration for one conversion run. It is built once
// in main and not modified afterwards.
type Config struct {
	InputDir  string
	OutputDir string

	// Images
	Delay       time.Duration
	NoDownload  bool
	UserAgent   string
	HTTPTimeout time.Duration
	MaxAttempts int

	// Relative date origin. Unset values fall back to the current time and
	// the local zone.
	OriginTimestampMillis int64
	OriginTimestampSet    bool
	OriginTimezoneMinutes int
	OriginTimezoneSet     bool

	// Links
	SiteOrigin string

	// Optional cross-run image cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	Verbose bool
}
