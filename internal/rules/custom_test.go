package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/errors"
	"archgraph/internal/testutil"
)

const yamlRules = `
rules:
  - id: no-frontend-llm
    description: LLM calls go through the backend
    severity: error
    suggestion: Proxy through the API
    forbidden:
      from:
        layer: frontend
      to:
        type: llm
  - id: no-stripe-from-workers
    severity: warning
    message: workers must not charge cards
    forbidden:
      from:
        name: "worker/*"
      to:
        name: Stripe
      connection_type: service-call
`

const tomlRules = `
[[rules]]
id = "no-frontend-llm"
severity = "error"

[rules.forbidden.from]
layer = "frontend"

[rules.forbidden.to]
type = "llm"
`

const jsonRules = `{"rules": [{"id": "no-frontend-llm", "severity": "error",
  "forbidden": {"from": {"layer": "frontend"}, "to": {"type": "llm"}}}]}`

func customGraph() *testutil.Graph {
	b := testutil.NewGraph()
	openai := b.Component("openai", architecture.TypeLLM, architecture.LayerExternal, 0.9)
	stripe := b.Component("stripe", architecture.TypeService, architecture.LayerExternal, 0.9)
	b.Connect(architecture.FileRef("web/src/Chat.tsx"), openai.ID, architecture.ConnServiceCall, 0.9)
	b.Connect(architecture.FileRef("api/chat.go"), openai.ID, architecture.ConnServiceCall, 0.9)
	b.Connect(architecture.FileRef("worker/billing.py"), stripe.ID, architecture.ConnServiceCall, 0.8)
	b.Connect(architecture.FileRef("api/pay.go"), stripe.ID, architecture.ConnServiceCall, 0.8)
	return b
}

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".yaml", yamlRules},
		{".toml", tomlRules},
		{".json", jsonRules},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			rules, err := Parse([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			require.NotEmpty(t, rules)
			assert.Equal(t, "no-frontend-llm", rules[0].ID)
			assert.Equal(t, SeverityError, rules[0].Severity)
			assert.Equal(t, "frontend", rules[0].Forbidden.From.Layer)
			assert.Equal(t, "llm", rules[0].Forbidden.To.Type)
		})
	}
}

func TestCustomRules_Forbidden(t *testing.T) {
	custom, err := Parse([]byte(yamlRules), ".yml")
	require.NoError(t, err)

	res := Evaluate(customGraph().Records(), Options{Custom: custom})

	llm := byRule(res, "no-frontend-llm")
	require.Len(t, llm, 1)
	assert.Equal(t, "openai", llm[0].Component)
	assert.Equal(t, "Proxy through the API", llm[0].Suggestion)
	assert.Equal(t, "web/src/Chat.tsx -> openai (service-call) is forbidden", llm[0].Message)

	stripe := byRule(res, "no-stripe-from-workers")
	require.Len(t, stripe, 1)
	assert.Equal(t, "workers must not charge cards", stripe[0].Message)
	assert.Equal(t, SeverityWarning, stripe[0].Severity)
}

func TestCustomRules_OpenMatch(t *testing.T) {
	custom := []CustomRule{{ID: "everything", Severity: SeverityInfo, Forbidden: &Forbidden{}}}
	res := Evaluate(customGraph().Records(), Options{Custom: custom})
	assert.Len(t, byRule(res, "everything"), 4)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"bad severity", ".yaml", "rules:\n  - id: x\n    severity: fatal\n    forbidden: {}\n"},
		{"missing forbidden", ".yaml", "rules:\n  - id: x\n    severity: error\n"},
		{"missing id", ".json", `{"rules": [{"severity": "info", "forbidden": {}}]}`},
		{"bad layer", ".yaml", "rules:\n  - id: x\n    severity: info\n    forbidden:\n      from: {layer: middle}\n"},
		{"unknown field", ".yaml", "rules:\n  - id: x\n    severity: info\n    forbiden: {}\n"},
		{"builtin id", ".yaml", "rules:\n  - id: orphan-component\n    severity: info\n    forbidden: {}\n"},
		{"bad glob", ".yaml", "rules:\n  - id: x\n    severity: info\n    forbidden:\n      from: {name: \"[\"}\n"},
		{"malformed toml", ".toml", "[[rules]\n"},
		{"unsupported", ".ini", "rules="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.ext)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.InvalidRuleFile), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	rules, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, rules)

	p := filepath.Join(dir, "rules.toml")
	require.NoError(t, os.WriteFile(p, []byte(tomlRules), 0o644))
	rules, err = LoadFile(p)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	rules, err = LoadFile(empty)
	require.NoError(t, err)
	assert.Empty(t, rules)
}
