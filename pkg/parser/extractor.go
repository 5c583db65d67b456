package parser

import (
	"net/url"
	"regexp"
	"strings"

	"sjsage522/toriwatch/pkg/errors"
	"sjsage522/toriwatch/pkg/tree"
)

var itemIDRegex = regexp.MustCompile(`^item_(\d+)$`)

// extract pulls the fields of one listing row. Each failure names exactly
// one field; index is the row's position in the document.
func (p *Parser) extract(index int, row tree.Node) (*rawListing, *errors.ParseError) {
	raw := &rawListing{}

	idAttr, ok := attr(row, "id")
	if !ok {
		return nil, errors.NewMissingField(index, "", FieldID)
	}
	m := itemIDRegex.FindStringSubmatch(idAttr)
	if m == nil {
		return nil, errors.NewMalformedField(index, "", FieldID, idAttr)
	}
	raw.ID = m[1]

	companyAd, ok := attr(row, "data-company-ad")
	if !ok {
		return nil, errors.NewMissingField(index, raw.ID, FieldCompanyAd)
	}
	switch companyAd {
	case "0":
		raw.CompanyAd = false
	case "1":
		raw.CompanyAd = true
	default:
		return nil, errors.NewMalformedField(index, raw.ID, FieldCompanyAd, companyAd)
	}

	href, ok := attr(row, "href")
	if !ok {
		return nil, errors.NewMissingField(index, raw.ID, FieldLink)
	}
	link, err := p.resolveURL(href)
	if err != nil {
		return nil, errors.NewMalformedField(index, raw.ID, FieldLink, href)
	}
	raw.Link = link

	title, ok := firstText(row, compiled.title)
	if !ok {
		return nil, errors.NewMissingField(index, raw.ID, FieldTitle)
	}
	raw.Title = CollapseWhitespace(title)

	// a row without a price element is a listing without a price
	if price, ok := firstText(row, compiled.price); ok {
		raw.PriceText = price
	}

	if imgs := row.Find(compiled.thumbnail); len(imgs) > 0 {
		src, _ := attr(imgs[0], "src")
		raw.Thumbnail = src
	}

	if raw.PostedAt, ok = firstText(row, compiled.postedAt); !ok {
		return nil, errors.NewMissingField(index, raw.ID, FieldPostedAt)
	}

	// div.cat_geo holds location, listing kind and optionally the seller
	var paragraphs []string
	for _, n := range row.Find(compiled.catGeo) {
		paragraphs = append(paragraphs, CollapseWhitespace(n.Text()))
	}
	if len(paragraphs) < 1 || paragraphs[0] == "" {
		return nil, errors.NewMissingField(index, raw.ID, FieldLocation)
	}
	raw.Location = paragraphs[0]
	if len(paragraphs) < 2 || paragraphs[1] == "" {
		return nil, errors.NewMissingField(index, raw.ID, FieldKind)
	}
	raw.Kind = paragraphs[1]
	raw.Seller = CollapseWhitespace(strings.Join(paragraphs[2:], " "))

	return raw, nil
}

// attr returns the trimmed attribute value; empty values count as absent
func attr(n tree.Node, name string) (string, bool) {
	v, ok := n.Attr(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// firstText returns the untouched text of the first match of pattern. It
// reports false when there is no match or the text is only whitespace.
func firstText(n tree.Node, pattern tree.Pattern) (string, bool) {
	found := n.Find(pattern)
	if len(found) == 0 {
		return "", false
	}
	text := found[0].Text()
	return text, strings.TrimSpace(text) != ""
}

// resolveURL makes href absolute against the parser's base URL
func (p *Parser) resolveURL(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || p.baseURL == nil {
		return u.String(), nil
	}
	return p.baseURL.ResolveReference(u).String(), nil
}
