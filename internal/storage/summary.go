package storage

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"archgraph/internal/architecture"
	"archgraph/internal/paths"
)

const (
	DefaultSummaryLineThreshold = 150
	DefaultSummaryTopN          = 10
	lowConfidenceCutoff         = 0.6
)

// SummaryOptions configures summary rendering
type SummaryOptions struct {
	// LineThreshold is the size above which SUMMARY.md is compressed
	LineThreshold int
	// TopN bounds each section of the compressed summary
	TopN int
	Now  time.Time
}

func (o SummaryOptions) withDefaults() SummaryOptions {
	if o.LineThreshold <= 0 {
		o.LineThreshold = DefaultSummaryLineThreshold
	}
	if o.TopN <= 0 {
		o.TopN = DefaultSummaryTopN
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// RenderSummary renders the markdown report. limit > 0 truncates every
// section to that many entries and adds pointers to the full report.
func RenderSummary(recs *Records, now time.Time, limit int) string {
	comps := recs.ComponentIndex()
	var b strings.Builder

	b.WriteString("# Architecture Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Components: %d\n", len(recs.Components))
	fmt.Fprintf(&b, "- Connections: %d\n", len(recs.Connections))
	if limit > 0 {
		fmt.Fprintf(&b, "\n> Compressed view showing the top %d entries per section. Full report: `%s`. Per-entity records: `%s/<id>.json`, `%s/<id>.json`.\n",
			limit, paths.SummaryFullFile, paths.ComponentsDir, paths.ConnectionsDir)
	}

	// components grouped by layer
	byLayer := map[architecture.Layer][]*architecture.Component{}
	for _, c := range recs.Components {
		byLayer[c.Role.Layer] = append(byLayer[c.Role.Layer], c)
	}
	var extra []architecture.Layer
	for l := range byLayer {
		if !containsLayer(architecture.Layers, l) {
			extra = append(extra, l)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	layers := append(append([]architecture.Layer(nil), architecture.Layers...), extra...)

	b.WriteString("\n## Components by Layer\n")
	for _, layer := range layers {
		list := byLayer[layer]
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Source.Confidence != list[j].Source.Confidence {
				return list[i].Source.Confidence > list[j].Source.Confidence
			}
			return list[i].Name < list[j].Name
		})
		name := string(layer)
		if name == "" {
			name = "unassigned"
		}
		fmt.Fprintf(&b, "\n### %s (%d)\n\n", name, len(list))
		b.WriteString("| Component | Type | Confidence | Files |\n")
		b.WriteString("|---|---|---|---|\n")
		shown := truncated(len(list), limit)
		for _, c := range list[:shown] {
			label := c.Name
			if c.Role.Critical {
				label += " (critical)"
			}
			fmt.Fprintf(&b, "| %s | %s | %.2f | %d |\n", label, c.Type, c.Source.Confidence, len(c.Source.Files))
		}
		writeMore(&b, len(list)-shown)
	}

	// connection types
	if len(recs.Connections) > 0 {
		type typeStat struct {
			count int
			total float64
		}
		stats := map[architecture.ConnectionType]*typeStat{}
		for _, c := range recs.Connections {
			st := stats[c.Type]
			if st == nil {
				st = &typeStat{}
				stats[c.Type] = st
			}
			st.count++
			st.total += c.Confidence
		}
		types := make([]string, 0, len(stats))
		for t := range stats {
			types = append(types, string(t))
		}
		sort.Strings(types)

		b.WriteString("\n## Connections by Type\n\n")
		b.WriteString("| Type | Count | Avg Confidence |\n")
		b.WriteString("|---|---|---|\n")
		for _, t := range types {
			st := stats[architecture.ConnectionType(t)]
			fmt.Fprintf(&b, "| %s | %d | %.2f |\n", t, st.count, st.total/float64(st.count))
		}
	}

	// critical components
	var critical []*architecture.Component
	for _, c := range recs.Components {
		if c.Role.Critical {
			critical = append(critical, c)
		}
	}
	if len(critical) > 0 {
		sort.Slice(critical, func(i, j int) bool { return critical[i].Name < critical[j].Name })
		b.WriteString("\n## Critical Components\n\n")
		shown := truncated(len(critical), limit)
		for _, c := range critical[:shown] {
			purpose := c.Role.Purpose
			if purpose == "" {
				purpose = string(c.Type)
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", c.Name, purpose)
		}
		writeMore(&b, len(critical)-shown)
	}

	// weak evidence
	var weak []*architecture.Connection
	for _, c := range recs.Connections {
		if c.Confidence < lowConfidenceCutoff {
			weak = append(weak, c)
		}
	}
	if len(weak) > 0 {
		sort.Slice(weak, func(i, j int) bool {
			if weak[i].Confidence != weak[j].Confidence {
				return weak[i].Confidence < weak[j].Confidence
			}
			return weak[i].ID < weak[j].ID
		})
		fmt.Fprintf(&b, "\n## Low Confidence Connections (< %.1f)\n\n", lowConfidenceCutoff)
		shown := truncated(len(weak), limit)
		for _, c := range weak[:shown] {
			fmt.Fprintf(&b, "- %s -> %s (%s, %.2f)", displayName(comps, c.From.ComponentID), displayName(comps, c.To.ComponentID), c.Type, c.Confidence)
			if ref := c.CodeReference; ref.File != "" {
				if ref.LineStart > 0 {
					fmt.Fprintf(&b, " at `%s:%d`", ref.File, ref.LineStart)
				} else {
					fmt.Fprintf(&b, " at `%s`", ref.File)
				}
			}
			b.WriteString("\n")
		}
		writeMore(&b, len(weak)-shown)
	}

	return b.String()
}

// WriteSummary writes SUMMARY.md, compressing it into a top-N view with
// the full report in SUMMARY_FULL.md when it exceeds the line threshold.
// It returns whether compression happened and the full report's line count.
func (s *Store) WriteSummary(recs *Records, opts SummaryOptions) (bool, int, error) {
	opts = opts.withDefaults()
	full := RenderSummary(recs, opts.Now, 0)
	lines := strings.Count(full, "\n")

	primary := s.layout.File(paths.SummaryFile)
	secondary := s.layout.File(paths.SummaryFullFile)

	if lines <= opts.LineThreshold {
		if err := paths.WriteFileAtomic(primary, []byte(full), 0o644); err != nil {
			return false, lines, err
		}
		if err := os.Remove(secondary); err != nil && !os.IsNotExist(err) {
			return false, lines, fmt.Errorf("failed to remove stale %s: %w", paths.SummaryFullFile, err)
		}
		return false, lines, nil
	}

	if err := paths.WriteFileAtomic(secondary, []byte(full), 0o644); err != nil {
		return true, lines, err
	}
	compact := RenderSummary(recs, opts.Now, opts.TopN)
	if err := paths.WriteFileAtomic(primary, []byte(compact), 0o644); err != nil {
		return true, lines, err
	}
	s.logger.Debug("Summary compressed", "full_lines", lines, "threshold", opts.LineThreshold)
	return true, lines, nil
}

// ReadSummary returns SUMMARY.md, or SUMMARY_FULL.md when full is set and
// compression produced one.
func (s *Store) ReadSummary(full bool) (string, error) {
	if full {
		data, err := os.ReadFile(s.layout.File(paths.SummaryFullFile))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	data, err := os.ReadFile(s.layout.File(paths.SummaryFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func truncated(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

func writeMore(b *strings.Builder, hidden int) {
	if hidden > 0 {
		fmt.Fprintf(b, "\n_... and %d more in %s_\n", hidden, paths.SummaryFullFile)
	}
}

func displayName(comps map[string]*architecture.Component, id string) string {
	if architecture.IsFileRef(id) {
		return architecture.FilePath(id)
	}
	if c, ok := comps[id]; ok {
		return c.Name
	}
	return id
}

func containsLayer(list []architecture.Layer, l architecture.Layer) bool {
	for _, x := range list {
		if x == l {
			return true
		}
	}
	return false
}
