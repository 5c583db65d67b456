package worker

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sjsage522/toriwatch/helpers"
	"sjsage522/toriwatch/pkg/parser"
	"sjsage522/toriwatch/pkg/timestamp"
	"sjsage522/toriwatch/services/publisher"
)

// Job is one saved results page
type Job struct {
	Path string
	// FetchedAt is the reference instant. When zero it is read from the
	// dump file name.
	FetchedAt time.Time
}

// Result holds what parsing one page produced. Err is set when the page
// could not be read or its layout was not recognized; Outcome is nil then.
type Result struct {
	Job        Job
	Outcome    *parser.Outcome
	Err        error
	PublishErr error
}

// Options configures how pages are read and parsed
type Options struct {
	Location    *time.Location
	Locale      timestamp.Locale
	BaseURL     *url.URL
	Encoding    string
	Concurrency int

	// ParserLogger returns the logger for one page. Nil disables parser
	// debug output.
	ParserLogger func(page string) zerolog.Logger
}

// Worker parses saved pages concurrently and publishes the listings
type Worker struct {
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	opts      Options
	readPage  func(path, label string) (string, error)
}

// NewWorker creates a new worker. pub may be nil to skip publishing.
func NewWorker(pub publisher.Publisher, logger helpers.LoggerInterface, opts Options) *Worker {
	if opts.Location == nil {
		opts.Location = timestamp.SiteLocation()
	}
	if opts.Locale.Name == "" {
		opts.Locale = timestamp.Finnish
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Worker{
		publisher: pub,
		logger:    logger,
		opts:      opts,
		readPage:  helpers.ReadPage,
	}
}

// Run parses every job, at most Concurrency at a time, and returns the
// results in job order. Jobs not yet started when ctx is done get ctx's
// error.
func (w *Worker) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, w.opts.Concurrency)

	for i := range jobs {
		results[i].Job = jobs[i]

		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(r *Result) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				r.Err = err
				return
			}
			w.process(ctx, r)
		}(&results[i])
	}
	wg.Wait()

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}

	return results
}

// process parses and publishes one page
func (w *Worker) process(ctx context.Context, r *Result) {
	source := filepath.Base(r.Job.Path)

	outcome, err := w.parse(r.Job)
	if err != nil {
		r.Err = err
		w.logger.LogError(source, err)
		return
	}
	r.Outcome = outcome

	for _, failure := range outcome.Failures {
		w.logger.LogError(source, failure)
	}

	w.logger.LogInfo("%s: %d listings, %d failures", source, len(outcome.Items), len(outcome.Failures))

	if w.publisher == nil || len(outcome.Items) == 0 {
		return
	}
	if err := w.publisher.Publish(ctx, source, outcome.Items); err != nil {
		r.PublishErr = err
		w.logger.LogError(source, err)
	}
}

func (w *Worker) parse(job Job) (*parser.Outcome, error) {
	ref := job.FetchedAt
	if ref.IsZero() {
		var err error
		if ref, err = helpers.FetchTimeFromName(job.Path, w.opts.Location); err != nil {
			return nil, fmt.Errorf("no fetch time for %s: %w", job.Path, err)
		}
	}

	text, err := w.readPage(job.Path, w.opts.Encoding)
	if err != nil {
		return nil, err
	}

	opts := []parser.Option{
		parser.WithLocation(w.opts.Location),
		parser.WithLocale(w.opts.Locale),
		parser.WithBaseURL(w.opts.BaseURL),
	}
	if w.opts.ParserLogger != nil {
		opts = append(opts, parser.WithLogger(w.opts.ParserLogger(job.Path)))
	}

	return parser.New(ref, opts...).Parse(text)
}
