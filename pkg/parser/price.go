package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priceRegex = regexp.MustCompile(`^([0-9][0-9 ]*?) ?(€)$`)

// ParsePrice parses a price string such as "1 599 €". Digit groups may be
// separated by spaces. Anything else, including free-text prices, is an
// error. Price.Text keeps text exactly as given.
func ParsePrice(text string) (*Price, error) {
	s := CollapseWhitespace(text)
	m := priceRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("unrecognized price %q", text)
	}
	value, err := strconv.Atoi(strings.ReplaceAll(m[1], " ", ""))
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", text, err)
	}
	return &Price{Value: value, Unit: m[2], Text: text}, nil
}
