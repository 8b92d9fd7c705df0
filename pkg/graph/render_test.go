package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("")
	require.True(t, ok)
	require.Equal(t, FormatDOT, f)

	f, ok = ParseFormat(" Mermaid ")
	require.True(t, ok)
	require.Equal(t, FormatMermaid, f)

	_, ok = ParseFormat("svg")
	require.False(t, ok)
}

func TestRender_DOT(t *testing.T) {
	out, err := RenderString(website(t), FormatDOT)
	require.NoError(t, err)

	require.Contains(t, out, "digraph")
	require.Contains(t, out, "ARecord")
	require.Contains(t, out, "[dns-alias-record]")
	require.Contains(t, out, "->")
}

func TestRender_Mermaid(t *testing.T) {
	out, err := RenderString(website(t), FormatMermaid)
	require.NoError(t, err)

	require.NotContains(t, out, "digraph")
	require.True(t, strings.Contains(out, "graph") || strings.Contains(out, "flowchart"), out)
	require.Contains(t, out, "Distribution")
}
