package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two fatal failure classes the engine can produce
// itself. I/O failures from the underlying reader or writer are wrapped and
// surfaced as-is.
var (
	// ErrConfig marks an invalid repair configuration, detected before any
	// row is processed.
	ErrConfig = errors.New("invalid repair configuration")

	// ErrFormat marks input the tokenizer cannot parse (e.g. unterminated
	// quoting). Fatal; there is no row-level recovery from it.
	ErrFormat = errors.New("malformed input")
)

// Delimiter is the field separator of a delimited file
type Delimiter int

const (
	Comma Delimiter = iota
	Semicolon
	Tab
	Pipe
)

// Rune returns the separator for encoding/csv readers and writers
func (d Delimiter) Rune() rune {
	switch d {
	case Semicolon:
		return ';'
	case Tab:
		return '\t'
	case Pipe:
		return '|'
	default:
		return ','
	}
}

func (d Delimiter) String() string {
	switch d {
	case Semicolon:
		return "semicolon"
	case Tab:
		return "tab"
	case Pipe:
		return "pipe"
	default:
		return "comma"
	}
}

// ParseDelimiter resolves a delimiter name from the API surface.
// The empty string defaults to comma.
func ParseDelimiter(s string) (Delimiter, error) {
	switch s {
	case "", "comma":
		return Comma, nil
	case "semicolon":
		return Semicolon, nil
	case "tab":
		return Tab, nil
	case "pipe":
		return Pipe, nil
	}
	return Comma, fmt.Errorf("%w: delimiter must be comma, semicolon, tab or pipe, got %q", ErrConfig, s)
}

// HeaderMode says whether the first physical row is a header
type HeaderMode int

const (
	HasHeaders HeaderMode = iota
	NoHeaders
)

func (m HeaderMode) String() string {
	if m == NoHeaders {
		return "no_headers"
	}
	return "has_headers"
}

// ParseHeaderMode resolves a header mode name from the API surface.
// The empty string defaults to has_headers.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch s {
	case "", "has_headers":
		return HasHeaders, nil
	case "no_headers":
		return NoHeaders, nil
	}
	return HasHeaders, fmt.Errorf("%w: header_mode must be has_headers or no_headers, got %q", ErrConfig, s)
}

// Options configures a reconstruction run
type Options struct {
	Delimiter  Delimiter
	HeaderMode HeaderMode

	// ExpectedColumns is the target field width when the file has no header
	// row. Must be positive in NoHeaders mode; ignored otherwise.
	ExpectedColumns int
}

// Stats counts the outcomes of one reconstruction pass. Every physical data
// row consumed is accounted for exactly once: it either became part of an
// emitted logical row or was discarded.
type Stats struct {
	TotalRows   int `json:"total_rows"`   // physical rows consumed (header excluded)
	FixedRows   int `json:"fixed_rows"`   // logical rows assembled from 2+ physical rows
	RemovedRows int `json:"removed_rows"` // physical-row groups discarded
}

// SuccessRate is the percentage of physical rows that survived into the
// output. Zero when nothing was read.
func (s Stats) SuccessRate() float64 {
	if s.TotalRows == 0 {
		return 0
	}
	return float64(s.TotalRows-s.RemovedRows) / float64(s.TotalRows) * 100
}
