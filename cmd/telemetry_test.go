package cmd

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestPrintEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "iteration",
			line: `{"ts":"2026-01-02T03:04:05Z","kind":"iteration","run":"r1","data":{"iteration":3,"perplexity":1.5}}`,
			want: []string{"iteration", "run=r1", "iteration=3 perplexity=1.5"},
		},
		{
			name: "no run id",
			line: `{"ts":"2026-01-02T03:04:05Z","kind":"load_done"}`,
			want: []string{"load_done"},
		},
		{
			name: "garbage",
			line: `not json`,
			want: []string{"??? not json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printEvent(&buf, tt.line)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestFormatDataMap_Sorted(t *testing.T) {
	t.Parallel()

	got := formatDataMap(map[string]any{"b": 2, "a": "x", "c": true})
	if got != "a=x b=2 c=true" {
		t.Errorf("formatDataMap = %q", got)
	}
}

func TestPrintAvailable_SkipsBlankLines(t *testing.T) {
	t.Parallel()

	in := "{\"kind\":\"iteration\"}\n\n{\"kind\":\"converged\"}"
	var buf bytes.Buffer
	if err := printAvailable(&buf, bufio.NewReader(strings.NewReader(in))); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("printed %d lines, want 2:\n%s", n, buf.String())
	}
}
