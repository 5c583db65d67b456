package parser

import (
	"fmt"
	"strings"
	"time"
)

// fetchedAt is when the test pages were "downloaded"
var fetchedAt = time.Date(2023, 3, 25, 10, 52, 1, 0, time.UTC)

type listing struct {
	ID        string // id attribute, omitted when empty
	CompanyAd string // data-company-ad attribute, omitted when empty
	Href      string
	Title     string
	Price     string // omitted element when empty
	Thumbnail string
	PostedAt  string
	Geo       []string

	NoTitle    bool
	NoPostedAt bool
}

func validListing(n int) listing {
	return listing{
		ID:        fmt.Sprintf("item_%d", 100000+n),
		CompanyAd: "0",
		Href:      fmt.Sprintf("https://www.tori.fi/uusimaa/Tuote_%d_%d.htm?ca=18", n, 100000+n),
		Title:     fmt.Sprintf("Tuote %d", n),
		Price:     fmt.Sprintf("%d €", 10+n),
		Thumbnail: fmt.Sprintf("https://img.tori.net/image/thumbs/%d.jpg", 100000+n),
		PostedAt:  "tänään 09:15",
		Geo:       []string{"Helsinki", "Myydään"},
	}
}

func (l listing) render(row int) string {
	var b strings.Builder
	b.WriteString(`<a class="item_row_flex"`)
	if l.Href != "" {
		fmt.Fprintf(&b, ` href="%s"`, l.Href)
	}
	if l.ID != "" {
		fmt.Fprintf(&b, ` id="%s"`, l.ID)
	}
	fmt.Fprintf(&b, ` data-row="%d"`, row)
	if l.CompanyAd != "" {
		fmt.Fprintf(&b, ` data-company-ad="%s"`, l.CompanyAd)
	}
	b.WriteString(">\n")
	b.WriteString(`  <div class="item_row">` + "\n")
	if l.Thumbnail != "" {
		fmt.Fprintf(&b, `    <div class="image_container"><img class="item_image" src="%s" alt=""></div>`+"\n", l.Thumbnail)
	}
	b.WriteString(`    <div class="desc_flex"><div class="ad-details-left">` + "\n")
	if !l.NoTitle {
		fmt.Fprintf(&b, `      <div class="li-title">%s</div>`+"\n", l.Title)
	}
	if l.Price != "" {
		fmt.Fprintf(&b, `      <p class="list_price ineuros">%s</p>`+"\n", l.Price)
	}
	b.WriteString(`    </div><div class="ad-details-right">` + "\n")
	if !l.NoPostedAt {
		fmt.Fprintf(&b, `      <div class="date_image">%s</div>`+"\n", l.PostedAt)
	}
	b.WriteString(`      <div class="cat_geo clean_links">`)
	for _, g := range l.Geo {
		fmt.Fprintf(&b, "<p>%s</p>", g)
	}
	b.WriteString("</div>\n    </div></div>\n  </div>\n</a>\n")
	return b.String()
}

func resultsPage(listings ...listing) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="fi">
<head><meta charset="utf-8"><title>Koko Suomi | Tori</title></head>
<body>
<div id="blocket_content">
<div class="list_mode_thumb">
`)
	for i, l := range listings {
		b.WriteString(l.render(i))
	}
	b.WriteString("</div>\n</div>\n</body>\n</html>\n")
	return b.String()
}

func manyListings(n int) []listing {
	ls := make([]listing, n)
	for i := range ls {
		ls[i] = validListing(i)
	}
	return ls
}
