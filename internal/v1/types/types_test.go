package types

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanDisplayName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DisplayNameType
	}{
		{"plain name", "Alice", "Alice"},
		{"surrounding whitespace", "  Bob  ", "Bob"},
		{"empty falls back", "", DefaultDisplayName},
		{"whitespace only falls back", "   ", DefaultDisplayName},
		{"exactly at limit", strings.Repeat("a", 20), DisplayNameType(strings.Repeat("a", 20))},
		{"truncated past limit", strings.Repeat("b", 40), DisplayNameType(strings.Repeat("b", 20))},
		{"multibyte truncated on runes", strings.Repeat("あ", 25), DisplayNameType(strings.Repeat("あ", 20))},
		{"multibyte within limit untouched", "ありがとう", "ありがとう"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanDisplayName(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(string(got)))
		})
	}
}
