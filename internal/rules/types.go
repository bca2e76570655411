// Package rules evaluates architecture rules against a loaded graph.
// Built-in rules cover structural smells and component status; custom
// rules are declared in YAML, TOML or JSON files.
package rules

// Severity indicates how serious a violation is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Weight returns a numeric weight for sorting.
func (s Severity) Weight() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Violation is one rule failure
type Violation struct {
	Rule         string   `json:"rule"`
	Severity     Severity `json:"severity"`
	Component    string   `json:"component,omitempty"`
	ComponentID  string   `json:"component_id,omitempty"`
	ConnectionID string   `json:"connection_id,omitempty"`
	Message      string   `json:"message"`
	Suggestion   string   `json:"suggestion,omitempty"`
}

// Summary counts violations
type Summary struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// Result is the output of Evaluate
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Rule is a named check over the whole graph
type Rule struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Builtin     bool     `json:"builtin"`

	check func(*Context) []Violation
}
