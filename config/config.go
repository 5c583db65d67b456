package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"sjsage522/toriwatch/pkg/timestamp"
)

// ErrHelp is returned by LoadConfig when usage was requested and printed
var ErrHelp = errors.New("help requested")

// fetchTimeLayouts are accepted for --fetch-time besides RFC 3339
var fetchTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02-150405",
}

type rawConfig struct {
	// Parsing
	Timezone  string `long:"timezone" env:"TORI_TIMEZONE" default:"Europe/Helsinki" description:"Zone the site renders times in"`
	Locale    string `long:"locale" env:"TORI_LOCALE" default:"fi" description:"Day words and month names (fi, en)"`
	Encoding  string `long:"encoding" env:"TORI_ENCODING" default:"iso-8859-15" description:"Encoding of saved pages, empty to sniff"`
	BaseURL   string `long:"base-url" env:"TORI_BASE_URL" default:"https://www.tori.fi" description:"URL relative listing links are resolved against"`
	FetchTime string `long:"fetch-time" env:"TORI_FETCH_TIME" description:"Fetch time of the pages in the site zone; taken from dump file names when empty"`
	Workers   int    `long:"workers" env:"TORI_WORKERS" default:"4" description:"Pages parsed concurrently"`

	// Redis configuration
	Publish              bool   `long:"publish" env:"TORI_PUBLISH" description:"Publish listings to Redis streams"`
	RedisAddr            string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
	RedisDB              int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database"`
	RedisStream          string `long:"redis-stream" env:"REDIS_STREAM" default:"listings" description:"Redis stream name prefix"`
	RedisStreamCount     int    `long:"redis-stream-count" env:"REDIS_STREAM_COUNT" default:"1" description:"Number of streams to spread listings over"`
	RedisStreamMaxLength int    `long:"redis-stream-max-length" env:"REDIS_STREAM_MAX_LENGTH" default:"1000" description:"Maximum entries kept per stream"`

	FailureLog  string `long:"failure-log" env:"TORI_FAILURE_LOG" description:"File listing failures are appended to"`
	Environment string `long:"environment" env:"TORIWATCH_ENVIRONMENT" default:"development" description:"Environment (development, production)"`

	Args struct {
		Pages []string `positional-arg-name:"page" required:"1" description:"Saved results pages"`
	} `positional-args:"yes"`
}

// Config represents the application configuration
type Config struct {
	Timezone  string
	Locale    string
	Encoding  string
	BaseURL   string
	FetchTime string
	Workers   int

	// Redis configuration
	Publish              bool
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	FailureLog  string
	Environment string

	// Pages are the saved results pages to parse
	Pages []string

	// set by Validate
	location  *time.Location
	locale    timestamp.Locale
	baseURL   *url.URL
	fetchTime time.Time
}

// LoadConfig parses command line arguments and environment variables.
// It returns ErrHelp after printing usage for --help.
func LoadConfig(args []string) (*Config, error) {
	var raw rawConfig

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] page..."

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return &Config{
		Timezone:             raw.Timezone,
		Locale:               raw.Locale,
		Encoding:             raw.Encoding,
		BaseURL:              raw.BaseURL,
		FetchTime:            raw.FetchTime,
		Workers:              raw.Workers,
		Publish:              raw.Publish,
		RedisAddr:            raw.RedisAddr,
		RedisDB:              raw.RedisDB,
		RedisStream:          raw.RedisStream,
		RedisStreamCount:     raw.RedisStreamCount,
		RedisStreamMaxLength: raw.RedisStreamMaxLength,
		FailureLog:           raw.FailureLog,
		Environment:          raw.Environment,
		Pages:                raw.Args.Pages,
	}, nil
}

// Validate checks the configuration and resolves the derived values
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	locale, ok := timestamp.LocaleByName(c.Locale)
	if !ok {
		return fmt.Errorf("unsupported locale %q", c.Locale)
	}
	c.locale = locale

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("base URL must be absolute: %q", c.BaseURL)
		}
		c.baseURL = u
	}

	c.fetchTime = time.Time{}
	if c.FetchTime != "" {
		t, err := parseFetchTime(c.FetchTime, loc)
		if err != nil {
			return err
		}
		c.fetchTime = t
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if len(c.Pages) == 0 {
		return errors.New("no pages given")
	}

	if c.Publish {
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required")
		}
		if c.RedisStream == "" {
			return errors.New("REDIS_STREAM is required")
		}
		if c.RedisStreamCount <= 0 {
			return fmt.Errorf("REDIS_STREAM_COUNT must be positive, got %d", c.RedisStreamCount)
		}
		if c.RedisStreamMaxLength <= 0 {
			return fmt.Errorf("REDIS_STREAM_MAX_LENGTH must be positive, got %d", c.RedisStreamMaxLength)
		}
	}

	return nil
}

// Location returns the site zone. Valid after Validate.
func (c *Config) Location() *time.Location {
	return c.location
}

// TimestampLocale returns the locale for publish times. Valid after Validate.
func (c *Config) TimestampLocale() timestamp.Locale {
	return c.locale
}

// Base returns the parsed base URL, nil when links are kept as is.
// Valid after Validate.
func (c *Config) Base() *url.URL {
	return c.baseURL
}

// FetchTimeOverride returns the configured fetch time and whether one was
// set. Valid after Validate.
func (c *Config) FetchTimeOverride() (time.Time, bool) {
	return c.fetchTime, !c.fetchTime.IsZero()
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func parseFetchTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range fetchTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid fetch time %q", s)
}
