package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quoracook/internal/cache"
	"github.com/hyperifyio/quoracook/internal/fetch"
	"github.com/hyperifyio/quoracook/internal/images"
	"github.com/hyperifyio/quoracook/internal/page"
	"github.com/hyperifyio/quoracook/internal/rewrite"
)

// ErrNoInput means the input directory holds no *.html files.
var ErrNoInput = errors.New("no input files found")

// App wires the converter for one run.
type App struct {
	cfg       Config
	origin    time.Time
	assembler *page.Assembler
}

// Summary counts what a run did.
type Summary struct {
	Found     int
	Converted int
	Skipped   int
}

// New prepares the output directory, the optional image cache and the
// conversion pipeline. The origin instant is fixed here for the whole run.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o700); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var httpCache *cache.HTTPCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: true}
	}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client := &fetch.Client{
		HTTPClient:        newImageHTTPClient(cfg.HTTPTimeout),
		UserAgent:         ua,
		MaxAttempts:       attempts,
		PerRequestTimeout: cfg.HTTPTimeout,
		Cache:             httpCache,
	}
	localizer := &images.Localizer{
		Dir:      cfg.OutputDir,
		Getter:   client,
		Delay:    cfg.Delay,
		Download: !cfg.NoDownload,
	}

	origin := Origin(cfg, time.Now())
	log.Debug().Time("origin", origin).Msg("relative dates resolve against origin")

	return &App{
		cfg:    cfg,
		origin: origin,
		assembler: &page.Assembler{
			Rewriter: rewrite.New(rewrite.Options{SiteOrigin: cfg.SiteOrigin, Images: localizer}),
			Origin:   origin,
		},
	}, nil
}

// Close releases resources. Nothing is held open between files today.
func (a *App) Close() {}

// Run converts every *.html file of the input directory in sorted order. A
// file that fails is logged and skipped; only an empty input is fatal.
func (a *App) Run(ctx context.Context) error {
	_, err := a.RunSummary(ctx)
	return err
}

// RunSummary is Run returning the per-run counters.
func (a *App) RunSummary(ctx context.Context) (Summary, error) {
	var sum Summary
	files, err := filepath.Glob(filepath.Join(a.cfg.InputDir, "*.html"))
	if err != nil {
		return sum, fmt.Errorf("list input: %w", err)
	}
	sort.Strings(files)
	sum.Found = len(files)
	if len(files) == 0 {
		return sum, fmt.Errorf("%w in %s", ErrNoInput, a.cfg.InputDir)
	}

	for _, path := range files {
		if err := a.convertFile(ctx, path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping file")
			sum.Skipped++
			continue
		}
		sum.Converted++
	}
	log.Info().Int("found", sum.Found).Int("converted", sum.Converted).Int("skipped", sum.Skipped).Msg("done")
	return sum, nil
}

func (a *App) convertFile(ctx context.Context, path string) error {
	log.Info().Str("file", path).Msg("processing")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var out bytes.Buffer
	if err := a.assembler.Convert(ctx, f, &out); err != nil {
		return err
	}
	dest := filepath.Join(a.cfg.OutputDir, filepath.Base(path))
	if err := os.WriteFile(dest, out.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
