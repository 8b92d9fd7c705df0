package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/graph"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/naming"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

type planStep struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

type plan struct {
	Domain      string     `yaml:"domain"`
	AliasZoneID string     `yaml:"alias_zone_id"`
	Create      []planStep `yaml:"create"`
	Destroy     []string   `yaml:"destroy"`
	Waves       [][]string `yaml:"waves"`
}

func newPlanCmd(env *toolEnv) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show resource creation and teardown order",
		Long: `Print the order in which the stack's resources are created and destroyed.

Resources in the same wave only depend on earlier waves and may be
provisioned concurrently. Destruction is the exact reverse of creation.

Examples:
    website-tool plan
    website-tool plan -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(env.stdout, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or yaml")
	return cmd
}

func buildPlan(g *graph.Graph) plan {
	p := plan{
		Domain:      naming.FQDN(website.SubdomainLabel, website.BaseDomain),
		AliasZoneID: website.CloudFrontHostedZoneID,
		Destroy:     g.DestructionOrder(),
		Waves:       g.Levels(),
	}
	for _, id := range g.CreationOrder() {
		node, _ := g.Node(id)
		p.Create = append(p.Create, planStep{ID: node.ID, Kind: string(node.Kind), DependsOn: node.DependsOn})
	}
	return p
}

func runPlan(w io.Writer, output string) error {
	p := buildPlan(site.Topology())

	switch strings.ToLower(strings.TrimSpace(output)) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return writePlanText(w, p)
	default:
		return fmt.Errorf("unknown output: %s (use 'text' or 'yaml')", output)
	}
}

func writePlanText(w io.Writer, p plan) error {
	var b strings.Builder
	fmt.Fprintf(&b, "domain: %s (alias zone %s)\n\n", p.Domain, p.AliasZoneID)

	b.WriteString("create:\n")
	for i, step := range p.Create {
		fmt.Fprintf(&b, "  %d. %s [%s]", i+1, step.ID, step.Kind)
		if len(step.DependsOn) > 0 {
			fmt.Fprintf(&b, " after %s", strings.Join(step.DependsOn, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\ndestroy:\n")
	for i, id := range p.Destroy {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, id)
	}

	b.WriteString("\nwaves:\n")
	for i, wave := range p.Waves {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, strings.Join(wave, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
