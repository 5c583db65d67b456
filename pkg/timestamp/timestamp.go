// Package timestamp turns the relative publish times shown on tori.fi result
// pages ("tänään 12:34", "eilen 08:05", "21 huh 19:52") into UTC instants.
//
// Relative idioms only make sense against the moment the page was fetched,
// so every Normalizer is bound to a reference instant. Dates are resolved
// on the site's wall clock (Europe/Helsinki unless overridden), never the
// host's local zone.
package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// SiteZone is the zone tori.fi renders timestamps in.
const SiteZone = "Europe/Helsinki"

var (
	ErrUnrecognized    = errors.New("unrecognized timestamp")
	ErrOutOfRange      = errors.New("value out of range")
	ErrUnknownMonth    = errors.New("unknown month")
	ErrNonexistentTime = errors.New("nonexistent local time")
)

var siteLocation = mustLoadLocation(SiteZone)

// SiteLocation returns the loaded SiteZone.
func SiteLocation() *time.Location {
	return siteLocation
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("timestamp: load %s: %v", name, err))
	}
	return loc
}

// Error quotes the complete input and the fragment that was rejected.
type Error struct {
	Err      error
	Input    string
	Fragment string
	Field    string
}

func (e *Error) Error() string {
	if e.Fragment == "" || e.Fragment == e.Input {
		return fmt.Sprintf("%v %q", e.Err, e.Input)
	}
	if e.Field != "" {
		return fmt.Sprintf("%v: %s %q in %q", e.Err, e.Field, e.Fragment, e.Input)
	}
	return fmt.Sprintf("%v: %q in %q", e.Err, e.Fragment, e.Input)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalizer resolves timestamp text against a fixed reference instant.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	ref    time.Time
	loc    *time.Location
	locale Locale

	relative *regexp.Regexp
	absolute *regexp.Regexp
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLocation overrides the site zone.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithLocale overrides the relative-day words and month abbreviations.
func WithLocale(l Locale) Option {
	return func(n *Normalizer) {
		n.locale = l
	}
}

// New creates a Normalizer bound to ref, the moment the page was fetched.
func New(ref time.Time, opts ...Option) *Normalizer {
	n := &Normalizer{
		loc:    siteLocation,
		locale: Finnish,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.ref = ref.In(n.loc)

	days := regexp.QuoteMeta(n.locale.Today) + "|" + regexp.QuoteMeta(n.locale.Yesterday)
	n.relative = regexp.MustCompile(`(?i)^(` + days + `) (\d{1,2}):(\d{2})$`)
	n.absolute = regexp.MustCompile(`^(\d{1,2}) (\pL+) (\d{1,2}):(\d{2})$`)
	return n
}

// Reference returns the reference instant in the site zone.
func (n *Normalizer) Reference() time.Time {
	return n.ref
}

// Location returns the site zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize parses text into a UTC instant. Idioms are tried in order:
// today, yesterday, then "day month time". Runs of whitespace in text are
// treated as a single space.
func (n *Normalizer) Normalize(text string) (time.Time, error) {
	s := strings.Join(strings.Fields(text), " ")

	if m := n.relative.FindStringSubmatch(s); m != nil {
		return n.relativeDay(text, m[1], m[2], m[3])
	}
	if m := n.absolute.FindStringSubmatch(s); m != nil {
		return n.dayMonth(text, m[1], m[2], m[3], m[4])
	}
	return time.Time{}, &Error{Err: ErrUnrecognized, Input: text}
}

func (n *Normalizer) relativeDay(input, word, hh, mm string) (time.Time, error) {
	hour, minute, err := clock(input, hh, mm)
	if err != nil {
		return time.Time{}, err
	}

	y, mo, d := n.ref.Date()
	if strings.EqualFold(word, n.locale.Yesterday) {
		// calendar arithmetic only; the zone is applied in wallClock
		y, mo, d = time.Date(y, mo, d-1, 12, 0, 0, 0, time.UTC).Date()
	}
	return n.wallClock(input, y, mo, d, hour, minute)
}

func (n *Normalizer) dayMonth(input, dd, mon, hh, mm string) (time.Time, error) {
	day, _ := strconv.Atoi(dd)
	if day < 1 || day > 31 {
		return time.Time{}, &Error{Err: ErrOutOfRange, Input: input, Fragment: dd, Field: "day"}
	}
	month, ok := n.locale.month(mon)
	if !ok {
		return time.Time{}, &Error{Err: ErrUnknownMonth, Input: input, Fragment: mon}
	}
	hour, minute, err := clock(input, hh, mm)
	if err != nil {
		return time.Time{}, err
	}

	// the page omits the year; assume the listing is less than a year old
	year := n.ref.Year()
	t, err := n.calendarDate(input, dd, year, month, day, hour, minute)
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(n.ref) {
		return t, nil
	}
	return n.calendarDate(input, dd, year-1, month, day, hour, minute)
}

func (n *Normalizer) calendarDate(input, dd string, year int, month time.Month, day, hour, minute int) (time.Time, error) {
	if day > daysIn(year, month) {
		return time.Time{}, &Error{Err: ErrOutOfRange, Input: input, Fragment: dd, Field: "day"}
	}
	return n.wallClock(input, year, month, day, hour, minute)
}

// wallClock converts a site-local wall time to UTC. Wall times skipped by a
// DST transition are rejected; repeated ones resolve to the earlier instant.
func (n *Normalizer) wallClock(input string, year int, month time.Month, day, hour, minute int) (time.Time, error) {
	t := time.Date(year, month, day, hour, minute, 0, 0, n.loc)
	if t.Hour() != hour || t.Minute() != minute || t.Day() != day {
		return time.Time{}, &Error{
			Err:      ErrNonexistentTime,
			Input:    input,
			Fragment: fmt.Sprintf("%04d-%02d-%02d %02d:%02d", year, month, day, hour, minute),
		}
	}
	if earlier := t.Add(-time.Hour); sameWallClock(earlier, t) {
		t = earlier
	}
	return t.UTC(), nil
}

func clock(input, hh, mm string) (int, int, error) {
	hour, _ := strconv.Atoi(hh)
	if hour > 23 {
		return 0, 0, &Error{Err: ErrOutOfRange, Input: input, Fragment: hh, Field: "hour"}
	}
	minute, _ := strconv.Atoi(mm)
	if minute > 59 {
		return 0, 0, &Error{Err: ErrOutOfRange, Input: input, Fragment: mm, Field: "minute"}
	}
	return hour, minute, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
