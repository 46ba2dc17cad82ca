package progress

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short stays unchanged", "report.pdf", 40, "report.pdf"},
		{"exact length stays unchanged", strings.Repeat("a", 40), 40, strings.Repeat("a", 40)},
		{"long ascii gets ellipsis", strings.Repeat("a", 50), 40, strings.Repeat("a", 37) + "..."},
		{"multi-byte runes are not split", strings.Repeat("附", 50), 40, strings.Repeat("附", 37) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}
