package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/toriwatch/config"
	"sjsage522/toriwatch/helpers"
	"sjsage522/toriwatch/logger"
	"sjsage522/toriwatch/services/publisher"
	"sjsage522/toriwatch/services/worker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

// run returns the process exit status
func run() int {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	cfg, err := config.LoadConfig(os.Args[1:])
	if stderrors.Is(err, config.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger.ApplyEnvironment(cfg.IsProduction())

	log.Info().
		Str("environment", cfg.Environment).
		Int("pages", len(cfg.Pages)).
		Int("workers", cfg.Workers).
		Bool("publish", cfg.Publish).
		Msg("Starting toriwatch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, err := initializePublisher(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize publisher")
	}
	if pub != nil {
		defer func() {
			if err := pub.Close(); err != nil {
				logger.LogError("publisher", err, "Failed to close publisher")
			}
		}()
	}

	failures := helpers.NewLogger(cfg.FailureLog, logger.ForWorker().Zerolog())

	w := worker.NewWorker(pub, failures, worker.Options{
		Location:    cfg.Location(),
		Locale:      cfg.TimestampLocale(),
		BaseURL:     cfg.Base(),
		Encoding:    cfg.Encoding,
		Concurrency: cfg.Workers,
		ParserLogger: func(page string) zerolog.Logger {
			return logger.ForParser(page).Zerolog()
		},
	})

	results := w.Run(ctx, buildJobs(cfg))

	if err := writeReports(os.Stdout, results); err != nil {
		log.Fatal().Err(err).Msg("Failed to write results")
	}

	summarize(results)

	if failed := countFailed(results); failed > 0 {
		logger.Error("%d of %d pages could not be parsed", failed, len(results))
		return 1
	}
	return 0
}

// summarize logs the totals of a run
func summarize(results []worker.Result) {
	items, skipped := 0, 0
	for _, r := range results {
		if r.Outcome == nil {
			continue
		}
		items += len(r.Outcome.Items)
		skipped += len(r.Outcome.Failures)
	}
	if skipped > 0 {
		logger.Warn("Parsed %d pages: %d listings, %d skipped", len(results), items, skipped)
		return
	}
	logger.Info("Parsed %d pages: %d listings", len(results), items)
}

// initializePublisher connects to Redis when publishing is enabled.
// It returns a nil Publisher otherwise.
func initializePublisher(ctx context.Context, cfg *config.Config) (publisher.Publisher, error) {
	if !cfg.Publish {
		return nil, nil
	}

	redisPublisher := publisher.NewRedisPublisher(
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if err := redisPublisher.Ping(ctx); err != nil {
		redisPublisher.Close()
		return nil, err
	}

	logger.ForPublisher().Info().
		Str("addr", cfg.RedisAddr).
		Int("db", cfg.RedisDB).
		Str("stream", cfg.RedisStream).
		Msg("Connected to Redis")

	return redisPublisher, nil
}

func buildJobs(cfg *config.Config) []worker.Job {
	fetchedAt, _ := cfg.FetchTimeOverride()
	jobs := make([]worker.Job, len(cfg.Pages))
	for i, path := range cfg.Pages {
		jobs[i] = worker.Job{Path: path, FetchedAt: fetchedAt}
	}
	return jobs
}
