package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

func TestCoverage_EmptyGraph(t *testing.T) {
	rep := NewGraph(&storage.Records{}).Coverage(CoverageOptions{Files: []string{"a.go", "b.go"}})
	assert.Equal(t, 0.0, rep.OverallConfidence)
	assert.False(t, math.IsNaN(rep.OverallConfidence))
	assert.Equal(t, 2, rep.ComponentCoverage.TotalFiles)
	assert.Equal(t, 0, rep.ComponentCoverage.MappedFiles)
	assert.Empty(t, rep.Gaps)
}

func TestCoverage_Scenario(t *testing.T) {
	recs, api, db, _ := scenarioGraph()
	rep := NewGraph(recs).Coverage(CoverageOptions{
		Files:   []string{"api/main.go", "db/schema.sql", "README.md", "web/app.ts"},
		FileMap: storage.FileMap{"api/main.go": api.ID, "db/schema.sql": db.ID, "stale.go": api.ID},
	})

	assert.Equal(t, 3, rep.ComponentCoverage.Components)
	assert.Equal(t, 4, rep.ComponentCoverage.TotalFiles)
	assert.Equal(t, 2, rep.ComponentCoverage.MappedFiles)
	assert.InDelta(t, 0.5, rep.ComponentCoverage.Ratio, 1e-9)

	assert.Equal(t, 1, rep.ConnectionCoverage.Total)
	assert.Equal(t, 1, rep.ConnectionCoverage.High)
	assert.InDelta(t, 0.9, rep.ConnectionCoverage.MeanConfidence, 1e-9)
	assert.Equal(t, 1, rep.ConnectionCoverage.ByClassification[architecture.ClassProduction])

	// 0.6*0.9 + 0.4*0.5
	assert.InDelta(t, 0.74, rep.OverallConfidence, 1e-9)

	var names []string
	for _, g := range rep.Gaps {
		assert.Equal(t, GapNoDependents, g.Type)
		names = append(names, g.Name)
	}
	assert.ElementsMatch(t, []string{"API", "Orphan"}, names)
}

func TestCoverage_FileMapStandsInForManifest(t *testing.T) {
	recs, api, _, _ := scenarioGraph()
	rep := NewGraph(recs).Coverage(CoverageOptions{FileMap: storage.FileMap{"api/main.go": api.ID}})
	assert.Equal(t, 1, rep.ComponentCoverage.TotalFiles)
	assert.InDelta(t, 1.0, rep.ComponentCoverage.Ratio, 1e-9)
	assert.InDelta(t, 0.94, rep.OverallConfidence, 1e-9)
}

func TestCoverage_EmptyUniverseIsKept(t *testing.T) {
	recs, api, _, _ := scenarioGraph()
	rep := NewGraph(recs).Coverage(CoverageOptions{Files: []string{}, FileMap: storage.FileMap{"api/main.go": api.ID}})
	assert.Equal(t, 0, rep.ComponentCoverage.TotalFiles)
	assert.Equal(t, 0.0, rep.ComponentCoverage.Ratio)
}

func TestCoverage_Gaps(t *testing.T) {
	b := testutil.NewGraph()
	prompt := b.Component("triage-prompt", architecture.TypePrompt, architecture.LayerBackend, 0.8)
	stripe := b.Component("stripe", architecture.TypeService, architecture.LayerExternal, 0.9)
	queue := b.Component("jobs", architecture.TypeQueue, architecture.LayerQueue, 0.8)
	b.Connect(architecture.FileRef("worker/triage.py"), prompt.ID, architecture.ConnPromptLocation, 0.9)
	b.Connect(architecture.FileRef("api/pay.go"), stripe.ID, architecture.ConnServiceCall, 0.55)
	b.Connect(architecture.FileRef("api/jobs.go"), queue.ID, architecture.ConnPublishes, 0.62)

	rep := NewGraph(b.Records()).Coverage(CoverageOptions{})
	require.Len(t, rep.Gaps, 2)

	assert.Equal(t, GapNoDependencies, rep.Gaps[0].Type)
	assert.Equal(t, "triage-prompt", rep.Gaps[0].Name)

	assert.Equal(t, GapLowConfidence, rep.Gaps[1].Type)
	assert.InDelta(t, 0.55, rep.Gaps[1].Confidence, 1e-9)
	assert.Equal(t, "api/pay.go -> stripe (service-call)", rep.Gaps[1].Message)

	assert.Equal(t, 1, rep.ConnectionCoverage.Low)
	assert.Equal(t, 1, rep.ConnectionCoverage.Medium)
	assert.Equal(t, 1, rep.ConnectionCoverage.High)

	custom := NewGraph(b.Records()).Coverage(CoverageOptions{LowConfidenceThreshold: 0.7})
	assert.Len(t, custom.Gaps, 3)
}

func TestCoverage_OverallIsBounded(t *testing.T) {
	tests := []struct {
		name  string
		confs []float64
		files []string
	}{
		{"perfect", []float64{1, 1}, []string{"a.go"}},
		{"no files", []float64{0.5}, nil},
		{"weak", []float64{0.5, 0.5, 0.5}, []string{"a.go", "b.go", "c.go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewGraph()
			a := b.Component("a", architecture.TypePackage, architecture.LayerBackend, 1)
			for i, c := range tt.confs {
				target := b.Component(string(rune('b'+i)), architecture.TypePackage, architecture.LayerBackend, 1)
				b.Connect(a.ID, target.ID, architecture.ConnImports, c)
			}
			fm := storage.FileMap{}
			if len(tt.files) > 0 {
				fm[tt.files[0]] = a.ID
			}
			rep := NewGraph(b.Records()).Coverage(CoverageOptions{Files: tt.files, FileMap: fm})
			assert.GreaterOrEqual(t, rep.OverallConfidence, 0.0)
			assert.LessOrEqual(t, rep.OverallConfidence, 1.0)
		})
	}
}
