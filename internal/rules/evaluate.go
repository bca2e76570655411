package rules

import (
	"sort"

	"archgraph/internal/query"
	"archgraph/internal/storage"
)

// DefaultSPOFThreshold is the dependent count above which a backend
// component is reported as a single point of failure
const DefaultSPOFThreshold = 5

// Options controls Evaluate
type Options struct {
	SPOFThreshold int
	Disabled      []string
	Custom        []CustomRule
}

// Context is what a rule sees
type Context struct {
	Graph *query.Graph
	opts  Options
}

// Evaluate runs every enabled built-in rule and each custom rule over
// recs. An empty store yields an empty, well-formed result.
func Evaluate(recs *storage.Records, opts Options) *Result {
	if opts.SPOFThreshold <= 0 {
		opts.SPOFThreshold = DefaultSPOFThreshold
	}
	disabled := map[string]bool{}
	for _, id := range opts.Disabled {
		disabled[id] = true
	}

	ctx := &Context{Graph: query.NewGraph(recs), opts: opts}
	res := &Result{
		Violations: []Violation{},
		Summary:    Summary{BySeverity: map[Severity]int{}},
	}
	for _, r := range Rules(opts.Custom) {
		if disabled[r.ID] {
			continue
		}
		res.Violations = append(res.Violations, r.check(ctx)...)
	}

	sort.SliceStable(res.Violations, func(i, j int) bool {
		a, b := res.Violations[i], res.Violations[j]
		if a.Severity.Weight() != b.Severity.Weight() {
			return a.Severity.Weight() > b.Severity.Weight()
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Component != b.Component {
			return a.Component < b.Component
		}
		return a.Message < b.Message
	})
	for _, v := range res.Violations {
		res.Summary.Total++
		res.Summary.BySeverity[v.Severity]++
	}
	return res
}

// Rules lists the built-in rules followed by custom ones
func Rules(custom []CustomRule) []Rule {
	out := builtins()
	for i := range custom {
		out = append(out, custom[i].rule())
	}
	return out
}
