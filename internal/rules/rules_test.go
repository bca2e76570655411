package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

func byRule(res *Result, id string) []Violation {
	var out []Violation
	for _, v := range res.Violations {
		if v.Rule == id {
			out = append(out, v)
		}
	}
	return out
}

func TestEvaluate_Scenario(t *testing.T) {
	b := testutil.NewGraph()
	api := b.Component("API", architecture.TypePackage, architecture.LayerBackend, 0.9)
	db := b.Component("DB", architecture.TypeDatabase, architecture.LayerDatabase, 0.9)
	b.Component("Orphan", architecture.TypePackage, architecture.LayerBackend, 0.8)
	b.Connect(api.ID, db.ID, architecture.ConnStores, 0.9)

	res := Evaluate(b.Records(), Options{})

	orphans := byRule(res, RuleOrphan)
	require.Len(t, orphans, 1)
	assert.Equal(t, "Orphan", orphans[0].Component)
	assert.Empty(t, byRule(res, RuleFrontendDirectDB))
	assert.Empty(t, byRule(res, RuleDatabaseNoBackend))
	assert.Equal(t, 1, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.BySeverity[SeverityWarning])
}

func TestEvaluate_EmptyStore(t *testing.T) {
	res := Evaluate(&storage.Records{}, Options{})
	assert.NotNil(t, res.Violations)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 0, res.Summary.Total)
}

func TestEvaluate_FrontendDirectDB(t *testing.T) {
	b := testutil.NewGraph()
	pg := b.Component("postgresql", architecture.TypeDatabase, architecture.LayerDatabase, 0.9)
	web := b.Component("dashboard", architecture.TypePackage, architecture.LayerFrontend, 0.9)
	b.Connect(web.ID, pg.ID, architecture.ConnStores, 0.8)
	// file nodes take their layer from the path
	b.Connect(architecture.FileRef("web/src/App.tsx"), pg.ID, architecture.ConnStores, 0.8)

	res := Evaluate(b.Records(), Options{})
	direct := byRule(res, RuleFrontendDirectDB)
	require.Len(t, direct, 2)
	for _, v := range direct {
		assert.Equal(t, SeverityError, v.Severity)
		assert.Equal(t, "postgresql", v.Component)
		assert.NotEmpty(t, v.ConnectionID)
	}

	// only frontend ingress: no backend reaches the database
	ingress := byRule(res, RuleDatabaseNoBackend)
	require.Len(t, ingress, 1)
	assert.Equal(t, pg.ID, ingress[0].ComponentID)

	// errors sort first
	assert.Equal(t, SeverityError, res.Violations[0].Severity)
}

func TestEvaluate_BackendFileCountsAsIngress(t *testing.T) {
	b := testutil.NewGraph()
	pg := b.Component("postgresql", architecture.TypeDatabase, architecture.LayerDatabase, 0.9)
	b.Connect(architecture.FileRef("api/db.go"), pg.ID, architecture.ConnStores, 0.9)

	res := Evaluate(b.Records(), Options{})
	assert.Empty(t, byRule(res, RuleDatabaseNoBackend))
}

func TestEvaluate_StatusRules(t *testing.T) {
	b := testutil.NewGraph()
	statuses := map[string]architecture.Status{
		"left-pad": architecture.StatusUnused,
		"log4j":    architecture.StatusVulnerable,
		"request":  architecture.StatusDeprecated,
		"react":    architecture.StatusActive,
	}
	for name, st := range statuses {
		c := b.Component(name, architecture.TypePackage, architecture.LayerShared, 0.9)
		c.Status = st
		b.Connect(architecture.FileRef("src/"+name+".js"), c.ID, architecture.ConnImports, 0.9)
	}

	res := Evaluate(b.Records(), Options{})
	tests := []struct {
		rule string
		name string
		sev  Severity
	}{
		{RuleUnused, "left-pad", SeverityInfo},
		{RuleVulnerable, "log4j", SeverityError},
		{RuleDeprecated, "request", SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got := byRule(res, tt.rule)
			require.Len(t, got, 1)
			assert.Equal(t, tt.name, got[0].Component)
			assert.Equal(t, tt.sev, got[0].Severity)
		})
	}
	assert.Equal(t, 3, res.Summary.Total)
}

func TestEvaluate_SinglePointOfFailure(t *testing.T) {
	build := func(dependents int) *storage.Records {
		b := testutil.NewGraph()
		auth := b.Component("auth", architecture.TypeService, architecture.LayerBackend, 0.9)
		for i := 0; i < dependents; i++ {
			b.Connect(architecture.FileRef(fmt.Sprintf("api/h%d.go", i)), auth.ID, architecture.ConnServiceCall, 0.9)
		}
		return b.Records()
	}

	assert.Empty(t, byRule(Evaluate(build(5), Options{}), RuleSinglePointFailure))
	assert.Len(t, byRule(Evaluate(build(6), Options{}), RuleSinglePointFailure), 1)
	assert.Len(t, byRule(Evaluate(build(3), Options{SPOFThreshold: 2}), RuleSinglePointFailure), 1)
}

func TestEvaluate_DisabledRules(t *testing.T) {
	b := testutil.NewGraph()
	b.Component("Orphan", architecture.TypePackage, architecture.LayerBackend, 0.8)
	res := Evaluate(b.Records(), Options{Disabled: []string{RuleOrphan}})
	assert.Empty(t, res.Violations)
}

func TestRules_ListsBuiltinsThenCustom(t *testing.T) {
	rs := Rules([]CustomRule{{ID: "no-llm-in-frontend", Severity: SeverityError, Forbidden: &Forbidden{}}})
	require.Len(t, rs, 8)
	assert.Equal(t, RuleOrphan, rs[0].ID)
	assert.Equal(t, "no-llm-in-frontend", rs[7].ID)
	assert.True(t, rs[0].Builtin)
	assert.False(t, rs[7].Builtin)
}
