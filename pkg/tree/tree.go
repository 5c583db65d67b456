// Package tree is the narrow document-query surface the parser is written
// against: find descendants by CSS pattern, read an attribute, read text.
package tree

import "errors"

var ErrInvalidUTF8 = errors.New("document is not valid UTF-8")

// Node is one element of a parsed document.
type Node interface {
	// Find returns the descendants matching pattern in document order.
	Find(pattern Pattern) []Node

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// Text returns the concatenated text content of the node.
	Text() string
}

// Provider builds a node tree from document text.
type Provider interface {
	Parse(text string) (Node, error)
}

// Pattern is a precompiled structural query.
type Pattern struct {
	source string
	sel    matcher
}

// String returns the pattern source.
func (p Pattern) String() string {
	return p.source
}
