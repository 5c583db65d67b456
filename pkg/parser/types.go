package parser

import (
	stderrors "errors"
	"time"

	"sjsage522/toriwatch/pkg/errors"
	"sjsage522/toriwatch/pkg/tree"
)

// Item is one normalized search-result listing
type Item struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Price        *Price    `json:"price,omitempty"`
	Location     string    `json:"location"`
	Kind         string    `json:"kind"`
	Seller       string    `json:"seller,omitempty"`
	CompanyAd    bool      `json:"company_ad"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Link         string    `json:"link"`
	PostedAtText string    `json:"posted_at_text"`
	PostedAt     time.Time `json:"posted_at"`
}

// Price is a listing price such as "1 599 €"
type Price struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
	Text  string `json:"text"`
}

// Outcome is the result of parsing one results page. Items and Failures
// are both in document order.
type Outcome struct {
	Reference time.Time
	Items     []Item
	Failures  []*errors.ParseError
}

// Err joins the per-listing failures, or returns nil when there are none
func (o *Outcome) Err() error {
	if len(o.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(o.Failures))
	for i, f := range o.Failures {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

// Field names used in per-listing errors
const (
	FieldID        = "id"
	FieldCompanyAd = "company_ad"
	FieldLink      = "link"
	FieldTitle     = "title"
	FieldPrice     = "price"
	FieldPostedAt  = "posted_at"
	FieldLocation  = "location"
	FieldKind      = "kind"
)

// Selectors contains CSS selectors for the tori.fi results page
type Selectors struct {
	Row       string
	Wrapper   string
	Title     string
	Price     string
	Thumbnail string
	PostedAt  string
	CatGeo    string
}

// DefaultSelectors matches the tori.fi list view
var DefaultSelectors = Selectors{
	Row:       "a[data-row]",
	Wrapper:   "div.list_mode_thumb, div.no_results",
	Title:     "div.li-title",
	Price:     ".list_price, .ineuros",
	Thumbnail: "img.item_image[src]",
	PostedAt:  "div.date_image",
	CatGeo:    "div.cat_geo > p",
}

type patterns struct {
	row       tree.Pattern
	wrapper   tree.Pattern
	title     tree.Pattern
	price     tree.Pattern
	thumbnail tree.Pattern
	postedAt  tree.Pattern
	catGeo    tree.Pattern
}

var compiled = patterns{
	row:       tree.MustCompile(DefaultSelectors.Row),
	wrapper:   tree.MustCompile(DefaultSelectors.Wrapper),
	title:     tree.MustCompile(DefaultSelectors.Title),
	price:     tree.MustCompile(DefaultSelectors.Price),
	thumbnail: tree.MustCompile(DefaultSelectors.Thumbnail),
	postedAt:  tree.MustCompile(DefaultSelectors.PostedAt),
	catGeo:    tree.MustCompile(DefaultSelectors.CatGeo),
}

// rawListing holds the extracted but not yet normalized fields of one row.
// Required fields are non-empty; optional ones are empty when absent.
// PriceText and PostedAt keep the markup text as is for error reports.
type rawListing struct {
	ID        string
	CompanyAd bool
	Link      string
	Title     string
	PriceText string
	Thumbnail string
	PostedAt  string
	Location  string
	Kind      string
	Seller    string
}
