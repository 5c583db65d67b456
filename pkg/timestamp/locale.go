package timestamp

import (
	"strings"
	"time"
)

// Locale holds the words a site uses for relative days and month names.
type Locale struct {
	Name      string
	Today     string
	Yesterday string
	Months    map[string]time.Month
}

// Finnish is the locale tori.fi publishes in.
var Finnish = Locale{
	Name:      "fi",
	Today:     "tänään",
	Yesterday: "eilen",
	Months: map[string]time.Month{
		"tam": time.January,
		"hel": time.February,
		"maa": time.March,
		"huh": time.April,
		"tou": time.May,
		"kes": time.June,
		"hei": time.July,
		"elo": time.August,
		"syy": time.September,
		"lok": time.October,
		"mar": time.November,
		"jou": time.December,
	},
}

// English uses three-letter English month abbreviations.
var English = Locale{
	Name:      "en",
	Today:     "today",
	Yesterday: "yesterday",
	Months: map[string]time.Month{
		"jan": time.January,
		"feb": time.February,
		"mar": time.March,
		"apr": time.April,
		"may": time.May,
		"jun": time.June,
		"jul": time.July,
		"aug": time.August,
		"sep": time.September,
		"oct": time.October,
		"nov": time.November,
		"dec": time.December,
	},
}

// LocaleByName looks up a built-in locale ("fi" or "en").
func LocaleByName(name string) (Locale, bool) {
	switch strings.ToLower(name) {
	case Finnish.Name, "finnish":
		return Finnish, true
	case English.Name, "english":
		return English, true
	}
	return Locale{}, false
}

func (l Locale) month(abbrev string) (time.Month, bool) {
	m, ok := l.Months[strings.ToLower(abbrev)]
	return m, ok
}
