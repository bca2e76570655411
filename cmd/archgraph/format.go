package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"archgraph/internal/api"
	"archgraph/internal/architecture"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/query"
	"archgraph/internal/scan"
	"archgraph/internal/storage"
	"archgraph/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// reportedError marks a failure whose envelope was already printed
type reportedError struct {
	code errors.ErrorCode
	msg  string
}

func (e *reportedError) Error() string {
	return e.msg
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp *envelope.Response, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func writeResponse(out, errOut io.Writer, resp *envelope.Response, format OutputFormat) error {
	text, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	if text != "" {
		if _, err := io.WriteString(out, text); err != nil {
			return err
		}
	}
	if resp.Success {
		return nil
	}
	msg := ""
	if resp.Error != nil {
		msg = *resp.Error
	}
	if format == FormatHuman {
		fmt.Fprintf(errOut, "Error: %s\n", msg)
	}
	return &reportedError{code: errors.ErrorCode(resp.ErrorCode), msg: msg}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// formatHuman renders the payload, then warnings and follow-up commands
func formatHuman(resp *envelope.Response) (string, error) {
	var b strings.Builder

	switch v := resp.Data.(type) {
	case nil:
	case *scan.Result:
		formatScan(&b, v)
	case *query.TraceResult:
		formatTrace(&b, v)
	case *query.SubgraphResult:
		formatSubgraph(&b, v)
	case *query.CoverageReport:
		formatCoverage(&b, v)
	case api.RulesPayload:
		formatRules(&b, v)
	case summaryPayload:
		b.WriteString(v.Markdown)
	case storage.SnapshotInfo:
		fmt.Fprintf(&b, "Snapshot %s created (%d components, %d connections)\n", v.ID, v.Components, v.Connections)
	case []storage.SnapshotInfo:
		formatSnapshots(&b, v)
	case *storage.SnapshotDiff:
		formatDiff(&b, v)
	case []storage.ScanRun:
		formatRuns(&b, v)
	case *storage.ScanRun:
		formatRun(&b, v)
	case exportResult:
		fmt.Fprintf(&b, "Exported %d components, %d connections, %d prompts to %s (%s)\n",
			v.Stats.Components, v.Stats.Connections, v.Stats.Prompts, v.Path, byteSize(v.Bytes))
	case outlinePayload:
		b.WriteString(v.Markdown)
	case importResult:
		fmt.Fprintf(&b, "Imported %s: %d records written, %d unchanged\n", v.Path, v.Written, v.Unchanged)
	case deleteResult:
		fmt.Fprintf(&b, "Deleted %s %s\n", v.Kind, v.ID)
	case version.BuildInfo:
		fmt.Fprintf(&b, "archgraph version %s\n", v.Version)
		if v.Commit != "" {
			fmt.Fprintf(&b, "  commit: %s\n", v.Commit)
		}
		if v.BuildDate != "" {
			fmt.Fprintf(&b, "  built:  %s\n", v.BuildDate)
		}
		fmt.Fprintf(&b, "  go:     %s\n", v.GoVersion)
	default:
		// unknown payloads fall back to JSON
		s, err := formatJSON(v)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}

	if t := truncation(resp); t != nil {
		fmt.Fprintf(&b, "\n(results truncated: %s)\n", t.Reason)
	}
	for _, w := range resp.Warnings {
		if w.Code != "" {
			fmt.Fprintf(&b, "Warning [%s]: %s\n", w.Code, w.Message)
		} else {
			fmt.Fprintf(&b, "Warning: %s\n", w.Message)
		}
	}
	if len(resp.SuggestedNextCalls) > 0 {
		b.WriteString("\nNext:\n")
		for _, c := range resp.SuggestedNextCalls {
			fmt.Fprintf(&b, "  archgraph %s", suggestionLine(c))
			if c.Reason != "" {
				fmt.Fprintf(&b, "  # %s", c.Reason)
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func truncation(resp *envelope.Response) *envelope.Truncation {
	if resp.Meta == nil || resp.Meta.Truncation == nil || !resp.Meta.Truncation.IsTruncated {
		return nil
	}
	return resp.Meta.Truncation
}

// suggestionLine renders a suggested call back into command-line form
func suggestionLine(c envelope.SuggestedCall) string {
	parts := []string{c.Command}
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "component", "focus", "ref", "arg":
			parts = append(parts, fmt.Sprint(c.Params[k]))
		}
	}
	for _, k := range keys {
		switch k {
		case "component", "focus", "ref", "arg":
			continue
		}
		if v, ok := c.Params[k].(bool); ok && v {
			parts = append(parts, "--"+k)
			continue
		}
		parts = append(parts, fmt.Sprintf("--%s %v", k, c.Params[k]))
	}
	return strings.Join(parts, " ")
}

func formatScan(b *strings.Builder, r *scan.Result) {
	fmt.Fprintf(b, "Scan complete (%s) in %s\n", r.Mode, r.Duration.Round(1e6))
	fmt.Fprintf(b, "  Files:       %d total, %d scanned (+%d ~%d -%d)\n",
		r.FilesTotal, r.FilesScanned, r.Changes.Added, r.Changes.Modified, r.Changes.Removed)
	fmt.Fprintf(b, "  Components:  %d (%d written)\n", r.Components, r.ComponentWrites.Written)
	fmt.Fprintf(b, "  Connections: %d (%d written)\n", r.Connections, r.ConnectionWrites.Written)
	if r.Compressed {
		b.WriteString("  Summary:     compressed (see SUMMARY_FULL.md)\n")
	}
	if r.RunID > 0 {
		fmt.Fprintf(b, "  Run:         #%d\n", r.RunID)
	}
}

func formatTrace(b *strings.Builder, r *query.TraceResult) {
	q := r.Query
	fmt.Fprintf(b, "Trace %s (%s, depth %d): %d path(s)\n", q.Component, q.Direction, q.MaxDepth, len(r.Paths))
	for i, p := range r.Paths {
		names := make([]string, len(p.Nodes))
		for j, n := range p.Nodes {
			names[j] = n.Name
		}
		arrow := " -> "
		if q.Direction == query.Backward {
			arrow = " <- "
		}
		fmt.Fprintf(b, "  %d. %s  [%s, min %.2f]\n", i+1, strings.Join(names, arrow), p.Classification, p.MinConfidence)
	}
	if len(r.ComponentsTouched) > 0 {
		fmt.Fprintf(b, "Components touched: %s\n", strings.Join(r.ComponentsTouched, ", "))
	}
	if len(r.LayersCrossed) > 0 {
		layers := make([]string, len(r.LayersCrossed))
		for i, l := range r.LayersCrossed {
			layers[i] = string(l)
		}
		fmt.Fprintf(b, "Layers crossed: %s\n", strings.Join(layers, ", "))
	}
}

func formatSubgraph(b *strings.Builder, r *query.SubgraphResult) {
	b.WriteString(r.Diagram)
	if !strings.HasSuffix(r.Diagram, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "\n%d nodes, %d edges\n", r.Stats.Nodes, r.Stats.Edges)
}

func formatCoverage(b *strings.Builder, r *query.CoverageReport) {
	cc, nc := r.ComponentCoverage, r.ConnectionCoverage
	fmt.Fprintf(b, "Overall confidence: %.2f\n\n", r.OverallConfidence)
	fmt.Fprintf(b, "Components: %d covering %d of %d files (%.0f%%)\n", cc.Components, cc.MappedFiles, cc.TotalFiles, cc.Ratio*100)
	fmt.Fprintf(b, "Connections: %d (high %d, medium %d, low %d; mean %.2f)\n", nc.Total, nc.High, nc.Medium, nc.Low, nc.MeanConfidence)
	classes := make([]architecture.Classification, 0, len(nc.ByClassification))
	for c := range nc.ByClassification {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, c := range classes {
		fmt.Fprintf(b, "  %-12s %d\n", c, nc.ByClassification[c])
	}
	if len(r.Gaps) > 0 {
		fmt.Fprintf(b, "\nGaps (%d):\n", len(r.Gaps))
		for _, g := range r.Gaps {
			fmt.Fprintf(b, "  - [%s] %s\n", g.Type, g.Message)
		}
	}
}

func formatRules(b *strings.Builder, r api.RulesPayload) {
	if r.Result == nil {
		return
	}
	if len(r.Violations) == 0 {
		fmt.Fprintf(b, "No violations (%d rules evaluated)\n", len(r.Rules))
		return
	}
	fmt.Fprintf(b, "%d violation(s)\n", r.Summary.Total)
	for _, v := range r.Violations {
		fmt.Fprintf(b, "  %-7s %-22s %s\n", v.Severity, v.Rule, v.Message)
		if v.Suggestion != "" {
			fmt.Fprintf(b, "          %s\n", v.Suggestion)
		}
	}
}

func formatSnapshots(b *strings.Builder, list []storage.SnapshotInfo) {
	if len(list) == 0 {
		b.WriteString("No snapshots.\n")
		return
	}
	w := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tLABEL\tCOMPONENTS\tCONNECTIONS")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Label, s.Components, s.Connections)
	}
	_ = w.Flush()
}

func formatDiff(b *strings.Builder, d *storage.SnapshotDiff) {
	fmt.Fprintf(b, "Diff %s..%s\n", short(d.From), short(d.To))
	if d.IsEmpty() {
		b.WriteString("  no changes\n")
		return
	}
	for _, c := range d.AddedComponents {
		fmt.Fprintf(b, "  + component  %s (%s)\n", c.Name, c.Type)
	}
	for _, c := range d.RemovedComponents {
		fmt.Fprintf(b, "  - component  %s (%s)\n", c.Name, c.Type)
	}
	for _, c := range d.ChangedComponents {
		fmt.Fprintf(b, "  ~ component  %s\n", c.After.Name)
	}
	for _, c := range d.AddedConnections {
		fmt.Fprintf(b, "  + connection %s -> %s (%s)\n", c.From, c.To, c.Type)
	}
	for _, c := range d.RemovedConnections {
		fmt.Fprintf(b, "  - connection %s -> %s (%s)\n", c.From, c.To, c.Type)
	}
	for _, c := range d.ChangedConnections {
		fmt.Fprintf(b, "  ~ connection %s -> %s\n", c.After.From, c.After.To)
	}
}

func formatRuns(b *strings.Builder, runs []storage.ScanRun) {
	if len(runs) == 0 {
		b.WriteString("No scan runs recorded.\n")
		return
	}
	w := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tMODE\tSCANNED\tCHANGED\tCOMPONENTS\tCONNECTIONS\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%d/%d\t+%d ~%d -%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Mode,
			r.FilesScanned, r.FilesTotal, r.FilesAdded, r.FilesModified, r.FilesRemoved,
			r.Components, r.Connections, r.Duration.Round(1e6))
	}
	_ = w.Flush()
}

func formatRun(b *strings.Builder, r *storage.ScanRun) {
	formatRuns(b, []storage.ScanRun{*r})
	if len(r.Warnings) > 0 {
		fmt.Fprintf(b, "\nWarnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			if w.File != "" {
				fmt.Fprintf(b, "  - [%s] %s: %s\n", w.Type, w.File, w.Message)
			} else {
				fmt.Fprintf(b, "  - [%s] %s\n", w.Type, w.Message)
			}
		}
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func byteSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
