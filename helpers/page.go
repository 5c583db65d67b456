package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoFetchTime is returned when a snapshot name carries no fetch time
var ErrNoFetchTime = errors.New("no fetch time in file name")

// dump files are saved as 2023-03-25-105201-dump.html
var dumpName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}-\d{6})-dump\.html$`)

const dumpLayout = "2006-01-02-150405"

// SiteEncoding is what tori.fi serves when a page does not say otherwise
var SiteEncoding encoding.Encoding = charmap.ISO8859_15

// ReadPage reads a saved results page and returns it as UTF-8 text.
// See DecodePage for the meaning of label.
func ReadPage(path, label string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return DecodePage(body, label)
}

// DecodePage converts body to UTF-8. label names the source encoding
// ("iso-8859-15", "utf-8", ...). An empty label sniffs the encoding from
// the BOM and meta tags and falls back to SiteEncoding.
func DecodePage(body []byte, label string) (string, error) {
	var enc encoding.Encoding
	name := strings.ToLower(strings.TrimSpace(label))

	if name == "" {
		sniffed, sniffedName, certain := charset.DetermineEncoding(body, "text/html")
		if !certain && sniffedName == "windows-1252" {
			// nothing declared and not UTF-8
			enc, name = SiteEncoding, "iso-8859-15"
		} else {
			enc, name = sniffed, sniffedName
		}
	} else {
		var canonical string
		enc, canonical = charset.Lookup(name)
		if enc == nil {
			return "", fmt.Errorf("unknown encoding %q", label)
		}
		name = canonical
	}

	if name == "utf-8" {
		return string(body), nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode page from %s: %w", name, err)
	}
	return string(decoded), nil
}

// FetchTimeFromName reads the fetch time encoded in a snapshot file name.
// The time is interpreted in loc.
func FetchTimeFromName(path string, loc *time.Location) (time.Time, error) {
	base := filepath.Base(path)
	m := dumpName.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoFetchTime, base)
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dumpLayout, m[1], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrNoFetchTime, base, err)
	}
	return t, nil
}
