package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// Format specifies the output format for a rendered graph.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatDOT, "":
		return FormatDOT, true
	case FormatMermaid:
		return FormatMermaid, true
	default:
		return "", false
	}
}

// Render writes g in the requested format. Edges point from a resource to
// the resource it depends on.
func Render(g *Graph, format Format, w io.Writer) error {
	out := build(g)

	var text string
	if format == FormatMermaid {
		text = dot.MermaidGraph(out, dot.MermaidTopToBottom)
	} else {
		text = out.String()
	}

	_, err := io.WriteString(w, text)
	return err
}

// RenderString is Render into a string.
func RenderString(g *Graph, format Format) (string, error) {
	var sb strings.Builder
	if err := Render(g, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func build(g *Graph) *dot.Graph {
	out := dot.NewGraph(dot.Directed)
	out.Attr("rankdir", "BT")

	out.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	for _, n := range g.Nodes() {
		node := out.Node(n.ID)
		node.Label(n.ID + "\\n[" + string(n.Kind) + "]")
		if len(n.DependsOn) == 0 {
			node.Attr("style", "rounded")
		}
	}
	for _, n := range g.Nodes() {
		for _, dep := range n.DependsOn {
			out.Edge(out.Node(n.ID), out.Node(dep))
		}
	}
	return out
}
