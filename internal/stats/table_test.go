package stats

import "testing"

func TestFormatTableAlignment(t *testing.T) {
	headers := []string{"Trial", "Score"}
	rows := [][]string{
		{"1", "12.5"},
		{"10", "-3.25"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	want := []string{
		"Trial Score",
		"1      12.5",
		"10    -3.25",
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("line %d = %q, want %q", i, line, want[i])
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Errorf("got %v, want nil", lines)
	}
}

func TestFormatTableRaggedRows(t *testing.T) {
	lines := formatTable([]string{"A"}, [][]string{{"1", "2"}}, nil)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1] != "1 2" {
		t.Errorf("ragged row = %q", lines[1])
	}
}
