package rules

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
	"archgraph/internal/query"
)

// NodeMatch selects connection endpoints. Empty attributes match
// everything; Name accepts path.Match globs and ignores case.
type NodeMatch struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" validate:"omitempty,oneof=package framework service database queue llm prompt infra file other"`
	Layer string `json:"layer,omitempty" yaml:"layer,omitempty" toml:"layer,omitempty" validate:"omitempty,oneof=frontend backend database queue infra external shared"`
}

// Forbidden flags every connection whose endpoints both match
type Forbidden struct {
	From           NodeMatch `json:"from" yaml:"from" toml:"from"`
	To             NodeMatch `json:"to" yaml:"to" toml:"to"`
	ConnectionType string    `json:"connection_type,omitempty" yaml:"connection_type,omitempty" toml:"connection_type,omitempty"`
}

// CustomRule is a rule declared in a rule file
type CustomRule struct {
	ID          string     `json:"id" yaml:"id" toml:"id" validate:"required"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Severity    Severity   `json:"severity" yaml:"severity" toml:"severity" validate:"required,oneof=error warning info"`
	Message     string     `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty" yaml:"suggestion,omitempty" toml:"suggestion,omitempty"`
	Forbidden   *Forbidden `json:"forbidden" yaml:"forbidden" toml:"forbidden" validate:"required"`
}

// File is the root of a rule file
type File struct {
	Rules []CustomRule `json:"rules" yaml:"rules" toml:"rules" validate:"dive"`
}

var validate = validator.New()

// LoadFile reads custom rules. The format follows the extension: .yaml,
// .yml, .toml or .json. A missing file or empty path yields no rules.
func LoadFile(p string) ([]CustomRule, error) {
	if p == "" {
		return nil, nil
	}
	data, err := os.ReadFile(p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data, filepath.Ext(p))
}

// Parse decodes and validates rule file content for the given extension
func Parse(data []byte, ext string) ([]CustomRule, error) {
	var f File
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
		if stderrors.Is(err, io.EOF) {
			err = nil
		}
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&f)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		return nil, errors.Newf(errors.InvalidRuleFile, "unsupported rule file extension %q", ext)
	}
	if err != nil {
		return nil, errors.New(errors.InvalidRuleFile, "failed to parse rule file", err)
	}

	if err := validate.Struct(&f); err != nil {
		return nil, errors.New(errors.InvalidRuleFile, "rule file failed validation", err).
			WithDetails(validationDetails(err))
	}
	seen := map[string]bool{}
	for _, r := range builtins() {
		seen[r.ID] = true
	}
	for _, r := range f.Rules {
		if seen[r.ID] {
			return nil, errors.Newf(errors.InvalidRuleFile, "duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		for _, m := range []NodeMatch{r.Forbidden.From, r.Forbidden.To} {
			if _, err := path.Match(strings.ToLower(m.Name), ""); err != nil {
				return nil, errors.New(errors.InvalidRuleFile, fmt.Sprintf("rule %q has a bad name pattern %q", r.ID, m.Name), err)
			}
		}
	}
	return f.Rules, nil
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return out
}

func (r *CustomRule) rule() Rule {
	cr := *r
	return Rule{
		ID:          cr.ID,
		Description: cr.Description,
		Severity:    cr.Severity,
		check:       cr.check,
	}
}

func (r CustomRule) check(ctx *Context) []Violation {
	var out []Violation
	f := r.Forbidden
	for _, conn := range ctx.Graph.Connections() {
		if f.ConnectionType != "" && string(conn.Type) != f.ConnectionType {
			continue
		}
		src, ok1 := ctx.Graph.Node(conn.From.ComponentID)
		dst, ok2 := ctx.Graph.Node(conn.To.ComponentID)
		if !ok1 || !ok2 || !f.From.matches(src) || !f.To.matches(dst) {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("%s -> %s (%s) is forbidden", src.Name, dst.Name, conn.Type)
		}
		out = append(out, Violation{
			Rule:         r.ID,
			Severity:     r.Severity,
			Component:    dst.Name,
			ComponentID:  dst.ID,
			ConnectionID: conn.ID,
			Message:      msg,
			Suggestion:   r.Suggestion,
		})
	}
	return out
}

func (m NodeMatch) matches(n *query.Node) bool {
	if m.Type != "" && architecture.ComponentType(m.Type) != n.Type {
		return false
	}
	if m.Layer != "" && architecture.Layer(m.Layer) != n.Layer {
		return false
	}
	if m.Name != "" {
		ok, _ := path.Match(strings.ToLower(m.Name), strings.ToLower(n.Name))
		if !ok {
			return false
		}
	}
	return true
}
