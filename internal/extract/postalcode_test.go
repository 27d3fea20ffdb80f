package extract_test

import (
	"testing"

	"github.com/myrjola/allocovid/internal/extract"
	"github.com/stretchr/testify/assert"
)

func TestPostalCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		// Unusable input.
		{"", "", false},
		{" ", "", false},
		{"0", "", false},
		{"aucun", "", false},

		// Straightforward recitals.
		{"75011", "75011", true},
		{"75 011", "75011", true},
		{"75  011", "75011", true},
		{"63630", "63630", true},
		{"63,629", "63629", true},
		{"03 000", "03000", true},
		{"100", "100", true},
		{"876220", "87622", true},
		{"87 2637", "87263", true},
		{"87 26 54", "87265", true},

		// Short completions are zero-padded.
		{"75 01", "75001", true},
		{"75 03", "75003", true},

		// Department spelled with a thousand marker.
		{"75000 11", "75011", true},
		{"75000 13", "75013", true},
		{"75000 8", "75008", true},
		{"78000 100", "78100", true},
		{"75 1000", "75000", true},
		{"75 1020", "75020", true},

		// Three groups with a thousand or hundred marker in the middle.
		{"75 1000 11", "75011", true},
		{"75 1000 1", "75001", true},
		{"78 700 11", "78711", true},
		{"78 800 2", "78802", true},
		{"6 100 27", "06127", true},
		{"75000 0 1", "75001", true},
		{"20 1000 102", "20102", true},

		// Many groups are simply concatenated.
		{"7 5 0 1 1", "75011", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := extract.PostalCode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
