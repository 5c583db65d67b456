package publisher

import (
	"context"

	"sjsage522/toriwatch/pkg/parser"
)

// Publisher represents a sink for parsed listings
type Publisher interface {
	// Publish publishes the listings parsed from one page. source names
	// the page.
	Publish(ctx context.Context, source string, items []parser.Item) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
