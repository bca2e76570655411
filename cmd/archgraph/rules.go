package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"archgraph/internal/api"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/rules"
)

type rulesOptions struct {
	file          string
	disabled      []string
	spofThreshold int
	failOn        string
}

func newRulesCmd(g *globalOptions) *cobra.Command {
	opts := &rulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Evaluate architecture rules against the graph",
		Long: `Evaluate the built-in rules (orphans, frontend reaching a database
directly, single points of failure, status problems) and any custom rules
from the rules file.

Custom rules are read from rules.file in the config (default
.archgraph/rules.yaml). YAML, TOML and JSON are accepted. An invalid
rules file is reported as an error alongside the built-in results.

Examples:
  archgraph rules
  archgraph rules --disable orphan --spof-threshold 3
  archgraph rules --fail-on error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return g.fail(cmd, err)
			}
			defer a.close()
			return runRules(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "Custom rules file (default from config)")
	cmd.Flags().StringSliceVar(&opts.disabled, "disable", nil, "Rule IDs to skip")
	cmd.Flags().IntVar(&opts.spofThreshold, "spof-threshold", 0, "Dependents above which a component is a single point of failure")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Exit non-zero on violations at or above this severity (error, warning, info)")
	return cmd
}

func runRules(cmd *cobra.Command, a *app, opts *rulesOptions) error {
	var failOn rules.Severity
	switch opts.failOn {
	case "":
	case string(rules.SeverityError), string(rules.SeverityWarning), string(rules.SeverityInfo):
		failOn = rules.Severity(opts.failOn)
	default:
		return a.emit(envelope.Failure(errors.Newf(errors.InvalidArgument, "unknown severity %q", opts.failOn)))
	}

	ropts := a.rulesOptions()
	ropts.Disabled = append(ropts.Disabled, opts.disabled...)
	if opts.spofThreshold > 0 {
		ropts.SPOFThreshold = opts.spofThreshold
	}
	file := a.rulesFile()
	if opts.file != "" {
		file, _ = filepath.Abs(opts.file)
	}

	v, err := a.view(cmd.Context())
	if err != nil {
		return a.emit(envelope.Failure(err))
	}
	b := v.Envelope(a.now())
	custom, err := rules.LoadFile(file)
	if err != nil {
		b.Error(err)
	}
	ropts.Custom = custom

	res := rules.Evaluate(v.Records, ropts)
	if err := a.emit(b.Data(api.RulesPayload{Result: res, Rules: rules.Rules(custom)}).Build()); err != nil {
		return err
	}

	if failOn == "" {
		return nil
	}
	n := 0
	for _, viol := range res.Violations {
		if viol.Severity.Weight() >= failOn.Weight() {
			n++
		}
	}
	if n > 0 {
		msg := fmt.Sprintf("%d violation(s) at or above %s", n, failOn)
		fmt.Fprintln(a.errOut, msg)
		return &reportedError{code: errors.InternalError, msg: msg}
	}
	return nil
}
