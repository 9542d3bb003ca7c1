package nml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagnostic_Error(t *testing.T) {
	d := &Diagnostic{Pos: Pos{Line: 3, Column: 5}, Severity: SeverityError, Msg: "unrecognized line: ???"}
	require.Equal(t, "3:5: unrecognized line: ???", d.Error())
	require.Equal(t, "error", d.Severity.String())
	require.Equal(t, "warning", SeverityWarning.String())
}

func TestDiagnostic_SourceContext(t *testing.T) {
	src := "a\nb\ncc\nd\ne"

	tests := []struct {
		name   string
		pos    Pos
		radius int
		want   string
	}{
		{
			name:   "middle",
			pos:    Pos{Line: 3, Column: 2},
			radius: 1,
			want:   "2 | b\n3 | cc\n  |  ^\n4 | d\n",
		},
		{
			name:   "clamped at the start",
			pos:    Pos{Line: 1, Column: 1},
			radius: 2,
			want:   "1 | a\n  | ^\n2 | b\n3 | cc\n",
		},
		{
			name:   "clamped at the end",
			pos:    Pos{Line: 5, Column: 1},
			radius: 1,
			want:   "4 | d\n5 | e\n  | ^\n",
		},
		{
			name:   "negative radius",
			pos:    Pos{Line: 2, Column: 1},
			radius: -1,
			want:   "2 | b\n  | ^\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Diagnostic{Pos: tt.pos}
			ctx := d.SourceContext(src, tt.radius)
			require.NotNil(t, ctx)
			require.Equal(t, tt.pos.Line, ctx.ErrorLine)
			require.Equal(t, tt.want, ctx.String())
		})
	}

	require.Nil(t, (&Diagnostic{Pos: Pos{Line: 9, Column: 1}}).SourceContext(src, 1))
	require.Nil(t, (&Diagnostic{}).SourceContext(src, 1))
	require.Empty(t, (&SourceContext{ErrorLine: 1}).String())
}

func TestDiagnostic_SourceContextWidth(t *testing.T) {
	src := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11"
	ctx := (&Diagnostic{Pos: Pos{Line: 9, Column: 1}}).SourceContext(src, 1)
	require.Equal(t, " 8 | 8\n 9 | 9\n   | ^\n10 | 10\n", ctx.String())
}
