package tree

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

type matcher = goquery.Matcher

// Compile parses a CSS selector group into a Pattern.
func Compile(source string) (Pattern, error) {
	sel, err := cascadia.Compile(source)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", source, err)
	}
	return Pattern{source: source, sel: sel}, nil
}

// MustCompile is like Compile but panics on an invalid selector.
func MustCompile(source string) Pattern {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// GoqueryProvider builds trees with golang.org/x/net/html and queries them
// through goquery.
type GoqueryProvider struct{}

// Parse implements Provider.
func (GoqueryProvider) Parse(text string) (Node, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("html parse: %w", err)
	}
	return FromSelection(goquery.NewDocumentFromNode(root).Selection), nil
}

// FromSelection wraps an existing goquery selection.
func FromSelection(s *goquery.Selection) Node {
	return selection{s}
}

type selection struct {
	s *goquery.Selection
}

func (n selection) Find(p Pattern) []Node {
	if p.sel == nil {
		return nil
	}
	found := n.s.FindMatcher(p.sel)
	nodes := make([]Node, found.Length())
	found.Each(func(i int, el *goquery.Selection) {
		nodes[i] = selection{el}
	})
	return nodes
}

func (n selection) Attr(name string) (string, bool) {
	return n.s.Attr(name)
}

func (n selection) Text() string {
	return n.s.Text()
}
