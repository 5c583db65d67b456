package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Stage represents the pipeline stage where a parse failed
type Stage string

const (
	// StageTreeBuild means the markup could not be turned into a node tree
	StageTreeBuild Stage = "tree-build-failed"
	// StageStructure means the results-page container shape was not found
	StageStructure Stage = "structure-not-found"
	// StageField means a single listing field was missing or malformed
	StageField Stage = "field"
	// StageTimestamp means a listing timestamp could not be normalized
	StageTimestamp Stage = "timestamp"
)

var (
	ErrTreeBuild         = stderrors.New("tree build failed")
	ErrStructureNotFound = stderrors.New("results structure not found")
	ErrMissingField      = stderrors.New("missing field")
	ErrMalformedField    = stderrors.New("malformed field")
)

// NoIndex marks an error that is not tied to a listing
const NoIndex = -1

// ParseError describes what failed and where
type ParseError struct {
	Stage     Stage
	Field     string
	Index     int
	ListingID string
	Detail    string
	Err       error
}

// StageName returns the stage label, e.g. "field:price"
func (e *ParseError) StageName() string {
	if e.Stage == StageField && e.Field != "" {
		return string(e.Stage) + ":" + e.Field
	}
	return string(e.Stage)
}

// Error implements the error interface
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.StageName())
	b.WriteString("]")
	if e.Index != NoIndex {
		fmt.Fprintf(&b, " listing #%d", e.Index)
	}
	if e.ListingID != "" {
		fmt.Fprintf(&b, " (id %s)", e.ListingID)
	}
	var cause string
	if e.Err != nil {
		cause = e.Err.Error()
		b.WriteString(": ")
		b.WriteString(cause)
	}
	// timestamp errors already quote the raw text
	if e.Detail != "" && !strings.Contains(cause, fmt.Sprintf("%q", e.Detail)) {
		fmt.Fprintf(&b, ": %q", e.Detail)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether the error aborts a whole document
func (e *ParseError) IsStructural() bool {
	return e.Stage == StageTreeBuild || e.Stage == StageStructure
}

// NewTreeBuild creates a document-level tree build error
func NewTreeBuild(detail string, err error) *ParseError {
	if err == nil {
		err = ErrTreeBuild
	} else {
		err = fmt.Errorf("%w: %w", ErrTreeBuild, err)
	}
	return &ParseError{Stage: StageTreeBuild, Index: NoIndex, Detail: detail, Err: err}
}

// NewStructure creates a document-level structure-not-found error
func NewStructure(detail string) *ParseError {
	return &ParseError{Stage: StageStructure, Index: NoIndex, Detail: detail, Err: ErrStructureNotFound}
}

// NewMissingField creates a per-listing error for an absent field
func NewMissingField(index int, listingID, field string) *ParseError {
	return &ParseError{
		Stage:     StageField,
		Field:     field,
		Index:     index,
		ListingID: listingID,
		Err:       ErrMissingField,
	}
}

// NewMalformedField creates a per-listing error for a field whose raw value
// is present but not in the expected shape. The raw value is kept verbatim.
func NewMalformedField(index int, listingID, field, raw string) *ParseError {
	return &ParseError{
		Stage:     StageField,
		Field:     field,
		Index:     index,
		ListingID: listingID,
		Detail:    raw,
		Err:       ErrMalformedField,
	}
}

// NewTimestamp creates a per-listing timestamp normalization error
func NewTimestamp(index int, listingID, raw string, err error) *ParseError {
	return &ParseError{
		Stage:     StageTimestamp,
		Index:     index,
		ListingID: listingID,
		Detail:    raw,
		Err:       err,
	}
}

// IsStructural returns true if err is a document-level parse error
func IsStructural(err error) bool {
	var pe *ParseError
	return stderrors.As(err, &pe) && pe.IsStructural()
}

// IsListing returns true if err is a per-listing parse error
func IsListing(err error) bool {
	var pe *ParseError
	return stderrors.As(err, &pe) && !pe.IsStructural()
}
