package nml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []SourceLine
	}{
		{
			name: "empty",
			src:  "",
			want: nil,
		},
		{
			name: "blank and comment lines",
			src:  "\n   \n// comment\n  // indented comment\n",
			want: nil,
		},
		{
			name: "indent and positions",
			src:  "div\n\n  // note\n  p \"x\"\r\n\t\tspan  ",
			want: []SourceLine{
				{Indent: 0, Text: "div", Pos: Pos{Line: 1, Column: 1}},
				{Indent: 2, Text: `p "x"`, Pos: Pos{Line: 4, Column: 3}},
				{Indent: 2, Text: "span", Pos: Pos{Line: 5, Column: 3}},
			},
		},
		{
			name: "comment marker inside text is kept",
			src:  `a(href: "//example.com")`,
			want: []SourceLine{
				{Indent: 0, Text: `a(href: "//example.com")`, Pos: Pos{Line: 1, Column: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
