package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quoracook/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputDir        string
		outputDir       string
		delaySeconds    float64
		noDownload      bool
		verbose         bool
		originTimestamp int64
		originTimezone  int
		configPath      string
		siteOrigin      string
		userAgent       string
		cacheDir        string
		cacheMaxAge     time.Duration
		cacheClear      bool
		showVersion     bool
	)

	flag.StringVar(&inputDir, "input", app.DefaultInputDir, "Directory of archived Quora *.html pages")
	flag.StringVar(&outputDir, "output", app.DefaultOutputDir, "Directory to write converted pages and images")
	flag.Float64Var(&delaySeconds, "delay", 0, "Seconds to wait after each image download")
	flag.Float64Var(&delaySeconds, "d", 0, "Shorthand for -delay")
	flag.BoolVar(&noDownload, "no-download", false, "Keep remote image URLs instead of downloading")
	flag.BoolVar(&noDownload, "n", false, "Shorthand for -no-download")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Int64Var(&originTimestamp, "origin-timestamp", 0, "Milliseconds since epoch relative dates resolve against (default now)")
	flag.Int64Var(&originTimestamp, "t", 0, "Shorthand for -origin-timestamp")
	flag.IntVar(&originTimezone, "origin-timezone", 0, "Timezone offset of the origin in minutes west of UTC (default local zone)")
	flag.IntVar(&originTimezone, "z", 0, "Shorthand for -origin-timezone")
	flag.StringVar(&configPath, "config", os.Getenv("QUORACOOK_CONFIG"), "Optional YAML or JSON config file")
	flag.StringVar(&siteOrigin, "site", app.DefaultSiteOrigin, "Origin prefixed to root-relative links")
	flag.StringVar(&userAgent, "ua", app.DefaultUserAgent, "User-Agent for image downloads")
	flag.StringVar(&cacheDir, "cache.dir", "", "Optional image cache directory shared across runs")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [input_dir [output_dir]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("quoracook %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Positional arguments as in "quoracook input_dir output_dir".
	if args := flag.Args(); len(args) > 0 {
		inputDir = args[0]
		if len(args) > 1 {
			outputDir = args[1]
		}
		if len(args) > 2 {
			flag.Usage()
			os.Exit(2)
		}
	}

	cfg := app.Config{
		InputDir:              inputDir,
		OutputDir:             outputDir,
		Delay:                 time.Duration(delaySeconds * float64(time.Second)),
		NoDownload:            noDownload,
		Verbose:               verbose,
		OriginTimestampMillis: originTimestamp,
		OriginTimestampSet:    set["t"] || set["origin-timestamp"],
		OriginTimezoneMinutes: originTimezone,
		OriginTimezoneSet:     set["z"] || set["origin-timezone"],
		SiteOrigin:            siteOrigin,
		UserAgent:             userAgent,
		HTTPTimeout:           app.DefaultHTTPTimeout,
		MaxAttempts:           app.DefaultMaxAttempts,
		CacheDir:              cacheDir,
		CacheMaxAge:           cacheMaxAge,
		CacheClear:            cacheClear,
	}

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("file", configPath).Msg("load config")
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
