package tui

import "testing"

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{
			name:  "fits on one line",
			in:    "find the odd one",
			width: 20,
			want:  "find the odd one",
		},
		{
			name:  "wraps at word boundary",
			in:    "find the odd one out",
			width: 12,
			want:  "find the odd\none out",
		},
		{
			name:  "long word keeps its own line",
			in:    "an extraordinarily long word",
			width: 10,
			want:  "an\nextraordinarily\nlong word",
		},
		{
			name:  "collapses inner whitespace",
			in:    "a  b\tc",
			width: 10,
			want:  "a b c",
		},
		{
			name:  "empty input",
			in:    "   ",
			width: 10,
			want:  "",
		},
		{
			name:  "zero width returns input",
			in:    "as is",
			width: 0,
			want:  "as is",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.in, tt.width)
			if got != tt.want {
				t.Fatalf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestGlyphForRotation(t *testing.T) {
	tests := []struct {
		rotation float64
		want     rune
	}{
		{0, '↑'},
		{45, '↗'},
		{90, '→'},
		{180, '↓'},
		{270, '←'},
		{315, '↖'},
		{360, '↑'},
	}
	for _, tt := range tests {
		if got := glyphForRotation(tt.rotation); got != tt.want {
			t.Fatalf("glyphForRotation(%v) = %q, want %q", tt.rotation, got, tt.want)
		}
	}
}
