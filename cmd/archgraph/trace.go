package main

import (
	"strings"

	"github.com/spf13/cobra"

	"archgraph/internal/architecture"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/query"
)

type traceOptions struct {
	direction      string
	depth          int
	classification string
	maxPaths       int
}

func newTraceCmd(g *globalOptions) *cobra.Command {
	opts := &traceOptions{}
	cmd := &cobra.Command{
		Use:   "trace <component>",
		Short: "Trace the paths leading out of (or into) a component",
		Long: `Enumerate simple paths from a component through the connection graph.
The component may be given by ID, exact name, or a unique name fragment.

Examples:
  archgraph trace orders-api
  archgraph trace postgres --direction backward
  archgraph trace checkout --class data-flow --depth 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			return runTrace(cmd, a, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.direction, "direction", "forward", "Direction: forward, backward or both")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "Maximum path length in hops (default from config)")
	cmd.Flags().StringVar(&opts.classification, "class", "", "Only paths of this classification (production, test, admin, analytics, dev-only, migration)")
	cmd.Flags().IntVar(&opts.maxPaths, "max-paths", 0, "Maximum paths returned (default from config)")
	return cmd
}

func parseClassification(s string) (architecture.Classification, error) {
	if s == "" {
		return "", nil
	}
	c, ok := architecture.LookupClassification(strings.ToLower(s))
	if !ok {
		return "", errors.Newf(errors.InvalidArgument, "unknown classification %q", s)
	}
	return c, nil
}

func runTrace(cmd *cobra.Command, a *app, name string, opts *traceOptions) error {
	class, err := parseClassification(opts.classification)
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	if opts.depth < 0 || opts.maxPaths < 0 {
		return a.emit(envelope.Failure(errors.New(errors.InvalidArgument, "depth and max-paths must not be negative", nil)))
	}

	v, err := a.view(cmd.Context())
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	res := v.Trace(name, query.TraceOptions{
		Direction:      query.ParseDirection(opts.direction),
		MaxDepth:       opts.depth,
		Classification: class,
		MaxPaths:       opts.maxPaths,
	})

	b := v.Envelope(a.now()).Data(res)
	if res.Truncated {
		b.WithTruncation(len(res.Paths), 0, "max-paths")
	}
	if len(res.Query.Resolved) == 0 {
		b.WarningWithCode(string(errors.ComponentNotFound), "no component matches "+name)
	} else if len(res.Paths) > 0 {
		b.SuggestCalls(envelope.ParseSuggestion("subgraph "+res.Query.Resolved[0], "view the neighbourhood as a diagram"))
	}
	return a.emit(b.Build())
}
