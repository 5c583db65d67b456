package parser

import (
	"fmt"

	"sjsage522/toriwatch/pkg/errors"
	"sjsage522/toriwatch/pkg/tree"
)

// locate returns the listing rows of a results page in document order.
// A page with no rows is only a valid empty result if it still has the
// results wrapper; otherwise the layout is no longer understood.
func locate(root tree.Node) ([]tree.Node, *errors.ParseError) {
	rows := root.Find(compiled.row)
	if len(rows) > 0 {
		return rows, nil
	}
	if len(root.Find(compiled.wrapper)) > 0 {
		return nil, nil
	}
	return nil, errors.NewStructure(fmt.Sprintf("no %s rows and no %s wrapper",
		compiled.row, compiled.wrapper))
}
