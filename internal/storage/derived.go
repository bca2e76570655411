package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"archgraph/internal/architecture"
	"archgraph/internal/paths"
)

// ComponentLookup maps keys to sorted component IDs
type ComponentLookup struct {
	ByName   map[string][]string `json:"by_name"`
	ByType   map[string][]string `json:"by_type"`
	ByLayer  map[string][]string `json:"by_layer"`
	ByStatus map[string][]string `json:"by_status"`
}

// ConnectionLookup maps keys to sorted connection IDs
type ConnectionLookup struct {
	ByType   map[string][]string `json:"by_type"`
	BySource map[string][]string `json:"by_source"`
	ByTarget map[string][]string `json:"by_target"`
}

// IndexStats holds aggregate counts
type IndexStats struct {
	Components        int            `json:"components"`
	Connections       int            `json:"connections"`
	Critical          int            `json:"critical"`
	ComponentsByType  map[string]int `json:"components_by_type"`
	ComponentsByLayer map[string]int `json:"components_by_layer"`
	ConnectionsByType map[string]int `json:"connections_by_type"`
	AverageConfidence float64        `json:"average_connection_confidence"`
}

// Index is the derived lookup document written to index.json
type Index struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Components  ComponentLookup  `json:"components"`
	Connections ConnectionLookup `json:"connections"`
	Stats       IndexStats       `json:"stats"`
}

// BuildIndex folds the records into an Index
func BuildIndex(recs *Records, now time.Time) *Index {
	idx := &Index{
		GeneratedAt: now.UTC(),
		Components: ComponentLookup{
			ByName:   map[string][]string{},
			ByType:   map[string][]string{},
			ByLayer:  map[string][]string{},
			ByStatus: map[string][]string{},
		},
		Connections: ConnectionLookup{
			ByType:   map[string][]string{},
			BySource: map[string][]string{},
			ByTarget: map[string][]string{},
		},
		Stats: IndexStats{
			ComponentsByType:  map[string]int{},
			ComponentsByLayer: map[string]int{},
			ConnectionsByType: map[string]int{},
		},
	}

	for _, c := range recs.Components {
		name := strings.ToLower(c.Name)
		idx.Components.ByName[name] = append(idx.Components.ByName[name], c.ID)
		idx.Components.ByType[string(c.Type)] = append(idx.Components.ByType[string(c.Type)], c.ID)
		idx.Components.ByLayer[string(c.Role.Layer)] = append(idx.Components.ByLayer[string(c.Role.Layer)], c.ID)
		idx.Components.ByStatus[string(c.Status)] = append(idx.Components.ByStatus[string(c.Status)], c.ID)
		idx.Stats.ComponentsByType[string(c.Type)]++
		idx.Stats.ComponentsByLayer[string(c.Role.Layer)]++
		if c.Role.Critical {
			idx.Stats.Critical++
		}
	}

	var total float64
	for _, c := range recs.Connections {
		idx.Connections.ByType[string(c.Type)] = append(idx.Connections.ByType[string(c.Type)], c.ID)
		idx.Connections.BySource[c.From.ComponentID] = append(idx.Connections.BySource[c.From.ComponentID], c.ID)
		idx.Connections.ByTarget[c.To.ComponentID] = append(idx.Connections.ByTarget[c.To.ComponentID], c.ID)
		idx.Stats.ConnectionsByType[string(c.Type)]++
		total += c.Confidence
	}

	idx.Stats.Components = len(recs.Components)
	idx.Stats.Connections = len(recs.Connections)
	if n := len(recs.Connections); n > 0 {
		idx.Stats.AverageConfidence = round3(total / float64(n))
	}

	for _, m := range []map[string][]string{
		idx.Components.ByName, idx.Components.ByType, idx.Components.ByLayer, idx.Components.ByStatus,
		idx.Connections.ByType, idx.Connections.BySource, idx.Connections.ByTarget,
	} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return idx
}

// GraphNode is a component in graph.json
type GraphNode struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Type       architecture.ComponentType `json:"type"`
	Layer      architecture.Layer         `json:"layer"`
	Confidence float64                    `json:"confidence"`
	Critical   bool                       `json:"critical,omitempty"`
}

// GraphEdge is a connection in graph.json
type GraphEdge struct {
	ID             string                      `json:"id"`
	From           string                      `json:"from"`
	To             string                      `json:"to"`
	Type           architecture.ConnectionType `json:"type"`
	Confidence     float64                     `json:"confidence"`
	Classification architecture.Classification `json:"classification"`
}

// GraphMetadata describes a graph document
type GraphMetadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	ComponentCount  int       `json:"component_count"`
	ConnectionCount int       `json:"connection_count"`
}

// Graph is the adjacency document written to graph.json
type Graph struct {
	Nodes    []GraphNode   `json:"nodes"`
	Edges    []GraphEdge   `json:"edges"`
	Metadata GraphMetadata `json:"metadata"`
}

// BuildGraph folds the records into a Graph. Edges keep their FILE:
// endpoints; those files have no node.
func BuildGraph(recs *Records, now time.Time) *Graph {
	g := &Graph{
		Nodes: make([]GraphNode, 0, len(recs.Components)),
		Edges: make([]GraphEdge, 0, len(recs.Connections)),
		Metadata: GraphMetadata{
			GeneratedAt:     now.UTC(),
			ComponentCount:  len(recs.Components),
			ConnectionCount: len(recs.Connections),
		},
	}
	for _, c := range recs.Components {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:         c.ID,
			Name:       c.Name,
			Type:       c.Type,
			Layer:      c.Role.Layer,
			Confidence: c.Source.Confidence,
			Critical:   c.Role.Critical,
		})
	}
	for _, c := range recs.Connections {
		g.Edges = append(g.Edges, GraphEdge{
			ID:             c.ID,
			From:           c.From.ComponentID,
			To:             c.To.ComponentID,
			Type:           c.Type,
			Confidence:     c.Confidence,
			Classification: c.ClassificationOf(),
		})
	}
	return g
}

// FileMap maps repo-relative file paths to the component that owns them
type FileMap map[string]string

// BuildFileMap assigns each contributing file to its strongest component.
// Ties go to the smaller component ID.
func BuildFileMap(recs *Records) FileMap {
	fm := FileMap{}
	best := map[string]float64{}
	for _, c := range recs.Components {
		for _, f := range c.Source.Files {
			cur, ok := fm[f]
			conf := c.Source.Confidence
			if !ok || conf > best[f] || (conf == best[f] && c.ID < cur) {
				fm[f] = c.ID
				best[f] = conf
			}
		}
	}
	return fm
}

// DerivedOptions configures WriteDerived
type DerivedOptions struct {
	Now     time.Time
	Summary SummaryOptions
}

// DerivedResult reports what WriteDerived produced
type DerivedResult struct {
	Index             *Index  `json:"-"`
	Graph             *Graph  `json:"-"`
	FileMap           FileMap `json:"-"`
	SummaryCompressed bool    `json:"summary_compressed"`
	SummaryLines      int     `json:"summary_lines"`
}

// WriteDerived rebuilds index.json, graph.json, file_map.json and the
// summary from recs. All of them are a pure function of the records.
func (s *Store) WriteDerived(ctx context.Context, recs *Records, opts DerivedOptions) (*DerivedResult, error) {
	if err := s.layout.Ensure(); err != nil {
		return nil, err
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	res := &DerivedResult{
		Index:   BuildIndex(recs, now),
		Graph:   BuildGraph(recs, now),
		FileMap: BuildFileMap(recs),
	}
	if err := writeJSON(s.layout.File(paths.IndexFile), res.Index); err != nil {
		return nil, err
	}
	if err := writeJSON(s.layout.File(paths.GraphFile), res.Graph); err != nil {
		return nil, err
	}
	if _, err := writeJSONIfChanged(s.layout.File(paths.FileMapFile), res.FileMap); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sumOpts := opts.Summary
	if sumOpts.Now.IsZero() {
		sumOpts.Now = now
	}
	compressed, lines, err := s.WriteSummary(recs, sumOpts)
	if err != nil {
		return nil, err
	}
	res.SummaryCompressed, res.SummaryLines = compressed, lines

	s.logger.Debug("Derived artifacts written",
		"components", len(recs.Components),
		"connections", len(recs.Connections),
		"files_mapped", len(res.FileMap),
		"summary_compressed", compressed,
	)
	return res, nil
}

// LoadFileMap reads file_map.json. A missing file is an empty map.
func (s *Store) LoadFileMap() (FileMap, error) {
	fm, err := readJSON[FileMap](s.layout.File(paths.FileMapFile))
	if err != nil {
		if isNotExist(err) {
			return FileMap{}, nil
		}
		return nil, err
	}
	if *fm == nil {
		return FileMap{}, nil
	}
	return *fm, nil
}

// LoadIndex reads index.json
func (s *Store) LoadIndex() (*Index, error) {
	return readJSON[Index](s.layout.File(paths.IndexFile))
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
