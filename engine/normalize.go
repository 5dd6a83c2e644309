package engine

import "strings"

// NormalizeField collapses every run of whitespace (spaces, tabs, newlines,
// carriage returns) to a single space and trims both ends. Stitched rows
// carry the line breaks that split them plus whatever stray spacing the
// export left behind; tokenizing on whitespace and rejoining flattens all of
// it in one step. Idempotent, and applied only when writing output.
func NormalizeField(field string) string {
	return strings.Join(strings.Fields(field), " ")
}
