package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"archgraph/internal/architecture"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/query"
)

type subgraphOptions struct {
	depth          int
	layers         []string
	classification string
	maxNodes       int
	mermaid        bool
}

func newSubgraphCmd(g *globalOptions) *cobra.Command {
	opts := &subgraphOptions{}
	cmd := &cobra.Command{
		Use:   "subgraph [focus...]",
		Short: "Extract a neighbourhood of the graph as a Mermaid diagram",
		Long: `Extract the components within --depth hops of the focus components, plus
every connection between them, and render the result as a Mermaid
flowchart. Without a focus the whole graph is returned, bounded by
--max-nodes.

Examples:
  archgraph subgraph orders-api
  archgraph subgraph checkout-ui orders-api --depth 1
  archgraph subgraph --layer backend --layer database --mermaid > arch.mmd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			return runSubgraph(cmd, a, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "Hops from the focus (default from config)")
	cmd.Flags().StringSliceVar(&opts.layers, "layer", nil, "Only components in these layers")
	cmd.Flags().StringVar(&opts.classification, "class", "", "Only connections of this classification")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "Maximum nodes returned (default from config)")
	cmd.Flags().BoolVar(&opts.mermaid, "mermaid", false, "Print only the Mermaid diagram")
	return cmd
}

func parseLayers(names []string) ([]architecture.Layer, error) {
	var out []architecture.Layer
	for _, n := range names {
		l, ok := architecture.LookupLayer(strings.ToLower(strings.TrimSpace(n)))
		if !ok {
			return nil, errors.Newf(errors.InvalidArgument, "unknown layer %q", n)
		}
		out = append(out, l)
	}
	return out, nil
}

func runSubgraph(cmd *cobra.Command, a *app, focus []string, opts *subgraphOptions) error {
	class, err := parseClassification(opts.classification)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	layers, err := parseLayers(opts.layers)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	if opts.depth < 0 || opts.maxNodes < 0 {
		return a.emit(envelope.Failure(errors.New(errors.InvalidArgument, "depth and max-nodes must not be negative", nil)))
	}

	v, err := a.view(cmd.Context())
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	res := v.Subgraph(query.SubgraphOptions{
		Focus:          focus,
		Depth:          opts.depth,
		Layers:         layers,
		Classification: class,
		MaxNodes:       opts.maxNodes,
	})

	if opts.mermaid && a.format == FormatHuman {
		_, err := io.WriteString(a.out, res.Diagram)
		return err
	}
	b := v.Envelope(a.now()).Data(res)
	if res.Truncated {
		b.WithTruncation(res.Stats.Nodes, 0, "max-nodes")
	}
	if len(focus) > 0 && len(res.Components) == 0 {
		b.WarningWithCode(string(errors.ComponentNotFound), "no component matches "+strings.Join(focus, ", "))
	}
	return a.emit(b.Build())
}
