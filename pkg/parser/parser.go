// Package parser turns a tori.fi search results page into normalized
// listings.
//
// A Parser is bound to the moment the page was fetched, which is needed to
// resolve relative publish times. Create one per fetched page:
//
//	p := parser.New(fetchedAt)
//	outcome, err := p.Parse(body)
//	if err != nil {
//		// the page layout was not recognized at all
//	}
//	for _, f := range outcome.Failures {
//		// one listing could not be read; the others are in outcome.Items
//	}
package parser

import (
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"sjsage522/toriwatch/pkg/errors"
	"sjsage522/toriwatch/pkg/timestamp"
	"sjsage522/toriwatch/pkg/tree"
)

// DefaultBaseURL is used to resolve relative listing links
const DefaultBaseURL = "https://www.tori.fi"

// Parser extracts listings from a results page. It keeps no state between
// calls and is safe for concurrent use.
type Parser struct {
	normalizer *timestamp.Normalizer
	provider   tree.Provider
	baseURL    *url.URL
	logger     zerolog.Logger

	tsOpts []timestamp.Option
}

// Option configures a Parser
type Option func(*Parser)

// WithLocation sets the zone the site renders times in
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		p.tsOpts = append(p.tsOpts, timestamp.WithLocation(loc))
	}
}

// WithLocale sets the relative-day words and month abbreviations
func WithLocale(l timestamp.Locale) Option {
	return func(p *Parser) {
		p.tsOpts = append(p.tsOpts, timestamp.WithLocale(l))
	}
}

// WithBaseURL sets the URL relative listing links are resolved against.
// A nil URL leaves links as they appear in the markup.
func WithBaseURL(u *url.URL) Option {
	return func(p *Parser) {
		p.baseURL = u
	}
}

// WithProvider replaces the tree provider
func WithProvider(tp tree.Provider) Option {
	return func(p *Parser) {
		if tp != nil {
			p.provider = tp
		}
	}
}

// WithLogger sets the logger used for per-document debug output
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// New creates a Parser for a page fetched at ref
func New(ref time.Time, opts ...Option) *Parser {
	base, _ := url.Parse(DefaultBaseURL)
	p := &Parser{
		provider: tree.GoqueryProvider{},
		baseURL:  base,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.normalizer = timestamp.New(ref, p.tsOpts...)
	p.tsOpts = nil
	return p
}

// Reference returns the fetch instant in the site zone
func (p *Parser) Reference() time.Time {
	return p.normalizer.Reference()
}

// Parse parses a whole results page. It returns an error only when the
// page as a whole cannot be used (see errors.IsStructural); failures of
// single listings are reported in Outcome.Failures.
func (p *Parser) Parse(text string) (*Outcome, error) {
	root, err := p.provider.Parse(text)
	if err != nil {
		return nil, errors.NewTreeBuild("", err)
	}
	return p.ParseNode(root)
}

// ParseNode is like Parse for an already built tree
func (p *Parser) ParseNode(root tree.Node) (*Outcome, error) {
	rows, perr := locate(root)
	if perr != nil {
		p.logger.Debug().Str("stage", perr.StageName()).Msg("Results structure not found")
		return nil, perr
	}

	outcome := &Outcome{
		Reference: p.Reference(),
		Items:     make([]Item, 0, len(rows)),
	}
	for i, row := range rows {
		item, failure := p.build(i, row)
		if failure != nil {
			p.logger.Debug().
				Int("index", i).
				Str("stage", failure.StageName()).
				Str("detail", failure.Detail).
				Msg("Skipping listing")
			outcome.Failures = append(outcome.Failures, failure)
			continue
		}
		outcome.Items = append(outcome.Items, *item)
	}

	p.logger.Debug().
		Int("rows", len(rows)).
		Int("items", len(outcome.Items)).
		Int("failures", len(outcome.Failures)).
		Msg("Parsed results page")

	return outcome, nil
}

// build runs extraction and normalization for one row
func (p *Parser) build(index int, row tree.Node) (*Item, *errors.ParseError) {
	raw, perr := p.extract(index, row)
	if perr != nil {
		return nil, perr
	}

	var price *Price
	if raw.PriceText != "" {
		var err error
		if price, err = ParsePrice(raw.PriceText); err != nil {
			return nil, errors.NewMalformedField(index, raw.ID, FieldPrice, raw.PriceText)
		}
	}

	postedAt, err := p.normalizer.Normalize(raw.PostedAt)
	if err != nil {
		return nil, errors.NewTimestamp(index, raw.ID, raw.PostedAt, err)
	}

	return &Item{
		ID:           raw.ID,
		Title:        raw.Title,
		Price:        price,
		Location:     raw.Location,
		Kind:         raw.Kind,
		Seller:       raw.Seller,
		CompanyAd:    raw.CompanyAd,
		Thumbnail:    raw.Thumbnail,
		Link:         raw.Link,
		PostedAtText: CollapseWhitespace(raw.PostedAt),
		PostedAt:     postedAt,
	}, nil
}
