package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/graph"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

func newGraphCmd(env *toolEnv) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the resource dependency graph",
		Long: `Render the stack's resource graph in DOT or Mermaid format.

Edges point from a resource to the resource it depends on.

The output can be rendered with Graphviz:
    website-tool graph | dot -Tpng -o website.png

Or embedded in GitHub markdown:
    website-tool graph -f mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := graph.ParseFormat(outputFormat)
			if !ok {
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}
			return graph.Render(site.Topology(), format, env.stdout)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	return cmd
}
