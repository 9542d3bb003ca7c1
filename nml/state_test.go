package nml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseStateDecl(t *testing.T) {
	tests := []struct {
		text       string
		name, init string
		ok         bool
	}{
		{"state count = 0", "count", "0", true},
		{`state name = "NML User"`, "name", `"NML User"`, true},
		{"state  items=[1, 2, 3]", "items", "[1, 2, 3]", true},
		{"state x = a == b", "x", "a == b", true},
		{"state 1x = 0", "", "", false},
		{"state x", "", "", false},
		{"state x =", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, init, ok := parseStateDecl(tt.text)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.name, name)
			require.Equal(t, tt.init, init)
		})
	}
}

func TestStateTable(t *testing.T) {
	st := NewStateTable()
	require.False(t, st.Declare("a", "1", Pos{Line: 1, Column: 1}))
	require.False(t, st.Declare("b", "2", Pos{Line: 2, Column: 1}))
	require.True(t, st.Declare("a", "3", Pos{Line: 3, Column: 1}))

	want := []StateDeclaration{
		{Name: "a", Init: "3", Pos: Pos{Line: 1, Column: 1}},
		{Name: "b", Init: "2", Pos: Pos{Line: 2, Column: 1}},
	}
	if diff := cmp.Diff(want, st.Declarations()); diff != "" {
		t.Errorf("Declarations() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, st.Len())
	require.True(t, st.Has("b"))
	require.False(t, st.Has("c"))

	// the returned slice is a copy
	st.Declarations()[0].Init = "changed"
	d, _ := st.Lookup("a")
	require.Equal(t, "3", d.Init)
}

func TestStateTable_Nil(t *testing.T) {
	var st *StateTable
	require.False(t, st.Has("a"))
	require.Zero(t, st.Len())
	require.Nil(t, st.Names())
	require.Nil(t, st.Declarations())
}
