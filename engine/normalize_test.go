package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Word \n", "Word"},
		{"Hello  World", "Hello World"},
		{" Item \t 1 ", "Item 1"},
		{"Mineral water from\nBodorna", "Mineral water from Bodorna"},
		{"This\nProduct\nIs from\nSarime", "This Product Is from Sarime"},
		{"\r\n\t ", ""},
		{"already clean", "already clean"},
	}

	for _, tt := range tests {
		got := NormalizeField(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeField(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeField_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a  b\tc\nd\r\ne",
		" leading and trailing ",
		"Mestia,\nGeorgia",
	}

	for _, s := range inputs {
		once := NormalizeField(s)
		if twice := NormalizeField(once); twice != once {
			t.Errorf("NormalizeField not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestWriteRecords_NormalizesEveryField(t *testing.T) {
	rows := [][]string{
		{"ID", "Details"},
		{"1", "Mineral water from\nBodorna"},
		{"2", "  spaced   out  "},
	}

	var buf bytes.Buffer
	err := WriteRecords(&buf, rows, Comma)
	assert.NoError(t, err)

	assert.Equal(t, "ID,Details\n1,Mineral water from Bodorna\n2,spaced out\n", buf.String())
}

func TestWriteRecords_UsesConfiguredDelimiter(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"1", "2"}}

	var buf bytes.Buffer
	err := WriteRecords(&buf, rows, Pipe)
	assert.NoError(t, err)

	assert.Equal(t, "a|b\n1|2\n", buf.String())
}
