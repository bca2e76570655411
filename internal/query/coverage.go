package query

import (
	"math"
	"sort"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
	"archgraph/internal/storage"
)

// DefaultLowConfidenceThreshold is the cutoff for low-confidence gaps
const DefaultLowConfidenceThreshold = 0.6

// Coverage blend weights
const (
	meanWeight     = 0.6
	coverageWeight = 0.4
)

// Gap types
const (
	GapNoDependents   = "no-dependents"
	GapNoDependencies = "no-dependencies"
	GapLowConfidence  = "low-confidence"
)

// CoverageOptions supplies the file universe for Coverage. When Files is
// nil the FileMap keys stand in for it.
type CoverageOptions struct {
	Files                  []string
	FileMap                storage.FileMap
	LowConfidenceThreshold float64
}

// ComponentCoverage reports how much of the tree is attributed
type ComponentCoverage struct {
	Components  int     `json:"components"`
	TotalFiles  int     `json:"total_files"`
	MappedFiles int     `json:"mapped_files"`
	Ratio       float64 `json:"ratio"`
}

// ConnectionCoverage buckets connections by confidence and classification
type ConnectionCoverage struct {
	Total            int                                 `json:"total"`
	High             int                                 `json:"high"`
	Medium           int                                 `json:"medium"`
	Low              int                                 `json:"low"`
	MeanConfidence   float64                             `json:"mean_confidence"`
	ByClassification map[architecture.Classification]int `json:"by_classification"`
}

// Gap is a structural weak spot
type Gap struct {
	Type         string  `json:"type"`
	ComponentID  string  `json:"component_id,omitempty"`
	Name         string  `json:"name,omitempty"`
	ConnectionID string  `json:"connection_id,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	Message      string  `json:"message"`
}

// CoverageReport is the output of Coverage
type CoverageReport struct {
	ComponentCoverage  ComponentCoverage  `json:"component_coverage"`
	ConnectionCoverage ConnectionCoverage `json:"connection_coverage"`
	Gaps               []Gap              `json:"gaps"`
	OverallConfidence  float64            `json:"overall_confidence"`
}

// Coverage aggregates attribution and confidence over the whole graph.
// OverallConfidence is always within [0,1] and is 0 for an empty graph.
func (g *Graph) Coverage(opts CoverageOptions) *CoverageReport {
	threshold := opts.LowConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultLowConfidenceThreshold
	}
	rep := &CoverageReport{
		ConnectionCoverage: ConnectionCoverage{ByClassification: map[architecture.Classification]int{}},
		Gaps:               []Gap{},
	}

	cc := &rep.ComponentCoverage
	cc.Components = len(g.components)
	if opts.Files != nil {
		cc.TotalFiles = len(opts.Files)
		for _, f := range opts.Files {
			if _, ok := opts.FileMap[f]; ok {
				cc.MappedFiles++
			}
		}
	} else {
		cc.TotalFiles = len(opts.FileMap)
		cc.MappedFiles = len(opts.FileMap)
	}
	if cc.TotalFiles > 0 {
		cc.Ratio = round3(float64(cc.MappedFiles) / float64(cc.TotalFiles))
	}

	conn := &rep.ConnectionCoverage
	var sum float64
	for _, c := range g.connections {
		conn.Total++
		sum += c.Confidence
		switch confidence.BandOf(c.Confidence) {
		case confidence.BandHigh:
			conn.High++
		case confidence.BandMedium:
			conn.Medium++
		default:
			conn.Low++
		}
		conn.ByClassification[c.ClassificationOf()]++
	}
	if conn.Total > 0 {
		conn.MeanConfidence = round3(sum / float64(conn.Total))
	}

	rep.Gaps = g.gaps(threshold)

	if len(g.components) > 0 || len(g.connections) > 0 {
		overall := meanWeight*conn.MeanConfidence + coverageWeight*cc.Ratio
		rep.OverallConfidence = round3(confidence.Clamp(overall))
	}
	return rep
}

// nonLeaf types are expected to depend on something
var nonLeaf = map[architecture.ComponentType]bool{
	architecture.TypePrompt: true,
	architecture.TypeFile:   true,
	architecture.TypeOther:  true,
}

func (g *Graph) gaps(threshold float64) []Gap {
	gaps := []Gap{}
	for _, c := range g.components {
		if c.IsExternal() {
			continue
		}
		if len(g.Incoming(c.ID)) == 0 {
			gaps = append(gaps, Gap{
				Type:        GapNoDependents,
				ComponentID: c.ID,
				Name:        c.Name,
				Message:     "nothing depends on " + c.Name,
			})
		}
		if nonLeaf[c.Type] && len(g.Outgoing(c.ID)) == 0 {
			gaps = append(gaps, Gap{
				Type:        GapNoDependencies,
				ComponentID: c.ID,
				Name:        c.Name,
				Message:     c.Name + " has no outgoing connections",
			})
		}
	}

	var low []*architecture.Connection
	for _, c := range g.connections {
		if c.Confidence < threshold {
			low = append(low, c)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Confidence < low[j].Confidence })
	for _, c := range low {
		gaps = append(gaps, Gap{
			Type:         GapLowConfidence,
			ConnectionID: c.ID,
			Confidence:   c.Confidence,
			Message:      g.describe(c),
		})
	}
	return gaps
}

func (g *Graph) describe(c *architecture.Connection) string {
	name := func(id string) string {
		if n, ok := g.Node(id); ok {
			return n.Name
		}
		return id
	}
	return name(c.From.ComponentID) + " -> " + name(c.To.ComponentID) + " (" + string(c.Type) + ")"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
