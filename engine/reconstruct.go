package engine

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Reconstructor is the record reconstruction state machine. It consumes
// tokenized physical rows one at a time and reassembles them into logical
// rows of a fixed width. A single buffer accumulates the row under
// construction; the machine is Idle when the buffer is empty.
type Reconstructor struct {
	expected int
	buffer   []string
	stats    Stats
}

// NewReconstructor creates a state machine targeting the given field width.
func NewReconstructor(expectedColumns int) (*Reconstructor, error) {
	if expectedColumns <= 0 {
		return nil, fmt.Errorf("%w: expected column count must be a positive integer, got %d", ErrConfig, expectedColumns)
	}
	return &Reconstructor{expected: expectedColumns}, nil
}

// Consume feeds one physical row into the machine. It returns the completed
// logical row and true when the row (directly, or via the buffer) reached the
// expected width; otherwise it returns nil and false.
func (r *Reconstructor) Consume(record []string) ([]string, bool) {
	r.stats.TotalRows++
	n := len(record)

	// A row wider than the target can be neither a complete record nor a
	// fragment of one; drop it outright. An in-progress buffer is left
	// exactly as it was.
	if n > r.expected {
		r.stats.RemovedRows++
		return nil, false
	}

	if len(r.buffer) == 0 {
		if n == r.expected {
			row := make([]string, n)
			copy(row, record)
			return row, true
		}
		// Incomplete row starts a new buffer
		r.buffer = append(r.buffer, record...)
		return nil, false
	}

	// Continuation of a buffered row: the leading field belongs to the last
	// buffered field, split there by a raw line break. The newline is kept;
	// cosmetic cleanup happens at write time via NormalizeField.
	if n > 0 {
		last := len(r.buffer) - 1
		if r.buffer[last] != "" {
			r.buffer[last] += "\n"
		}
		r.buffer[last] += record[0]
		r.buffer = append(r.buffer, record[1:]...)
	}

	switch {
	case len(r.buffer) == r.expected:
		row := r.buffer
		r.buffer = nil
		r.stats.FixedRows++
		return row, true
	case len(r.buffer) > r.expected:
		r.buffer = nil
		r.stats.RemovedRows++
	}
	return nil, false
}

// Finish marks the end of the row stream. A fragment still buffered at that
// point is unrecoverable and counts as removed.
func (r *Reconstructor) Finish() {
	if len(r.buffer) > 0 {
		r.stats.RemovedRows++
		r.buffer = nil
	}
}

// Stats returns the counters accumulated so far.
func (r *Reconstructor) Stats() Stats {
	return r.stats
}

// ReconstructRecords reads a whole delimited file and returns its repaired
// logical rows (header first, when present) together with the run's stats.
// The pass is atomic: a tokenizer or read failure aborts with no rows.
func ReconstructRecords(reader io.Reader, opts Options) ([][]string, Stats, error) {
	cr := newCSVReader(reader, opts.Delimiter)

	expected, header, err := detectColumnCount(cr, opts)
	if err != nil {
		return nil, Stats{}, err
	}

	rec, err := NewReconstructor(expected)
	if err != nil {
		return nil, Stats{}, err
	}

	var rows [][]string
	if header != nil {
		rows = append(rows, header)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rec.Stats(), fmt.Errorf("%w: %w", ErrFormat, err)
		}
		if row, ok := rec.Consume(record); ok {
			rows = append(rows, row)
		}
	}

	rec.Finish()
	return rows, rec.Stats(), nil
}

// detectColumnCount resolves the expected field width: the header row's width
// in HasHeaders mode, the externally supplied count otherwise.
func detectColumnCount(cr *csv.Reader, opts Options) (int, []string, error) {
	if opts.HeaderMode == NoHeaders {
		if opts.ExpectedColumns <= 0 {
			return 0, nil, fmt.Errorf("%w: no_headers mode requires a positive expected column count, got %d", ErrConfig, opts.ExpectedColumns)
		}
		return opts.ExpectedColumns, nil, nil
	}

	header, err := cr.Read()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: cannot read header row: %w", ErrFormat, err)
	}
	headerCopy := make([]string, len(header))
	copy(headerCopy, header)
	return len(headerCopy), headerCopy, nil
}

func newCSVReader(reader io.Reader, delimiter Delimiter) *csv.Reader {
	cr := csv.NewReader(reader)
	cr.Comma = delimiter.Rune()
	cr.FieldsPerRecord = -1 // varying widths are the whole point
	return cr
}
