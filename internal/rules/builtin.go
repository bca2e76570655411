package rules

import (
	"fmt"

	"archgraph/internal/architecture"
	"archgraph/internal/query"
)

// Built-in rule IDs
const (
	RuleOrphan             = "orphan-component"
	RuleDatabaseNoBackend  = "database-without-backend"
	RuleFrontendDirectDB   = "frontend-direct-db"
	RuleUnused             = "unused-component"
	RuleVulnerable         = "vulnerable-component"
	RuleDeprecated         = "deprecated-component"
	RuleSinglePointFailure = "single-point-of-failure"
)

func builtins() []Rule {
	rs := []Rule{
		{
			ID:          RuleOrphan,
			Description: "Component has no connections in either direction",
			Severity:    SeverityWarning,
			check:       checkOrphans,
		},
		{
			ID:          RuleDatabaseNoBackend,
			Description: "Database is not reached from any backend component or file",
			Severity:    SeverityWarning,
			check:       checkDatabaseIngress,
		},
		{
			ID:          RuleFrontendDirectDB,
			Description: "Frontend code connects straight to a database",
			Severity:    SeverityError,
			check:       checkFrontendDB,
		},
		{
			ID:          RuleUnused,
			Description: "Component is marked unused",
			Severity:    SeverityInfo,
			check:       statusRule(RuleUnused, architecture.StatusUnused, SeverityInfo, "Remove the dependency or document why it is kept"),
		},
		{
			ID:          RuleVulnerable,
			Description: "Component is marked vulnerable",
			Severity:    SeverityError,
			check:       statusRule(RuleVulnerable, architecture.StatusVulnerable, SeverityError, "Upgrade to a patched version"),
		},
		{
			ID:          RuleDeprecated,
			Description: "Component is marked deprecated",
			Severity:    SeverityWarning,
			check:       statusRule(RuleDeprecated, architecture.StatusDeprecated, SeverityWarning, "Plan a migration to the replacement"),
		},
		{
			ID:          RuleSinglePointFailure,
			Description: "Backend component has more dependents than the threshold",
			Severity:    SeverityWarning,
			check:       checkSPOF,
		},
	}
	for i := range rs {
		rs[i].Builtin = true
	}
	return rs
}

func isDatabase(n *query.Node) bool {
	return n.Type == architecture.TypeDatabase || n.Layer == architecture.LayerDatabase
}

func checkOrphans(ctx *Context) []Violation {
	var out []Violation
	for _, c := range ctx.Graph.Components() {
		if len(ctx.Graph.Incoming(c.ID)) > 0 || len(ctx.Graph.Outgoing(c.ID)) > 0 {
			continue
		}
		out = append(out, Violation{
			Rule:        RuleOrphan,
			Severity:    SeverityWarning,
			Component:   c.Name,
			ComponentID: c.ID,
			Message:     fmt.Sprintf("%s has no connections", c.Name),
			Suggestion:  "Check whether the component is still used or whether its usage went undetected",
		})
	}
	return out
}

func checkDatabaseIngress(ctx *Context) []Violation {
	var out []Violation
	for _, c := range ctx.Graph.Components() {
		n, _ := ctx.Graph.Node(c.ID)
		if !isDatabase(n) {
			continue
		}
		// orphans are reported by their own rule
		incoming := ctx.Graph.Incoming(c.ID)
		if len(incoming) == 0 && len(ctx.Graph.Outgoing(c.ID)) == 0 {
			continue
		}
		backed := false
		for _, conn := range incoming {
			if src, ok := ctx.Graph.Node(conn.From.ComponentID); ok && src.Layer == architecture.LayerBackend {
				backed = true
				break
			}
		}
		if backed {
			continue
		}
		out = append(out, Violation{
			Rule:        RuleDatabaseNoBackend,
			Severity:    SeverityWarning,
			Component:   c.Name,
			ComponentID: c.ID,
			Message:     fmt.Sprintf("database %s has no backend ingress", c.Name),
			Suggestion:  "Route database access through a backend service",
		})
	}
	return out
}

func checkFrontendDB(ctx *Context) []Violation {
	var out []Violation
	for _, conn := range ctx.Graph.Connections() {
		src, ok1 := ctx.Graph.Node(conn.From.ComponentID)
		dst, ok2 := ctx.Graph.Node(conn.To.ComponentID)
		if !ok1 || !ok2 || src.Layer != architecture.LayerFrontend || !isDatabase(dst) {
			continue
		}
		out = append(out, Violation{
			Rule:         RuleFrontendDirectDB,
			Severity:     SeverityError,
			Component:    dst.Name,
			ComponentID:  dst.ID,
			ConnectionID: conn.ID,
			Message:      fmt.Sprintf("frontend %s connects directly to %s", src.Name, dst.Name),
			Suggestion:   "Move the query behind a backend API",
		})
	}
	return out
}

func statusRule(id string, status architecture.Status, sev Severity, suggestion string) func(*Context) []Violation {
	return func(ctx *Context) []Violation {
		var out []Violation
		for _, c := range ctx.Graph.Components() {
			if c.Status != status {
				continue
			}
			out = append(out, Violation{
				Rule:        id,
				Severity:    sev,
				Component:   c.Name,
				ComponentID: c.ID,
				Message:     fmt.Sprintf("%s is %s", c.Name, status),
				Suggestion:  suggestion,
			})
		}
		return out
	}
}

func checkSPOF(ctx *Context) []Violation {
	var out []Violation
	for _, c := range ctx.Graph.Components() {
		if c.Role.Layer != architecture.LayerBackend {
			continue
		}
		dependents := map[string]bool{}
		for _, conn := range ctx.Graph.Incoming(c.ID) {
			dependents[conn.From.ComponentID] = true
		}
		if len(dependents) <= ctx.opts.SPOFThreshold {
			continue
		}
		out = append(out, Violation{
			Rule:        RuleSinglePointFailure,
			Severity:    SeverityWarning,
			Component:   c.Name,
			ComponentID: c.ID,
			Message:     fmt.Sprintf("%s has %d dependents (threshold %d)", c.Name, len(dependents), ctx.opts.SPOFThreshold),
			Suggestion:  "Consider redundancy or splitting responsibilities",
		})
	}
	return out
}
