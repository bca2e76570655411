package envelope

import (
	"sort"
	"strings"
	"time"

	"archgraph/internal/errors"
)

// Builder constructs Response envelopes using a fluent API.
type Builder struct {
	resp *Response
}

// New creates a new envelope builder.
func New() *Builder {
	return &Builder{
		resp: &Response{
			SchemaVersion: CurrentSchemaVersion,
		},
	}
}

func (b *Builder) meta() *Meta {
	if b.resp.Meta == nil {
		b.resp.Meta = &Meta{}
	}
	return b.resp.Meta
}

// Data sets the command-specific payload.
func (b *Builder) Data(data interface{}) *Builder {
	b.resp.Data = data
	return b
}

// WithConfidence records the overall graph confidence. A graph with no
// records gets TierUnknown.
func (b *Builder) WithConfidence(score float64, empty bool, factors ...ConfidenceFactor) *Builder {
	c := &Confidence{Score: score, Tier: ScoreToTier(score), Factors: factors}
	if empty {
		c.Tier = TierUnknown
		c.Reasons = append(c.Reasons, "store holds no components")
	}
	b.meta().Confidence = c
	return b
}

// WithProvenance records where the graph came from.
func (b *Builder) WithProvenance(storeDir string, components, connections int, scannedAt time.Time) *Builder {
	p := &Provenance{StoreDir: storeDir, Components: components, Connections: connections}
	if !scannedAt.IsZero() {
		p.ScannedAt = scannedAt.UTC().Format(time.RFC3339)
	}
	b.meta().Provenance = p
	return b
}

// WithFreshness records the age of the last scan. A non-empty staleReason
// downgrades the confidence tier by one step.
func (b *Builder) WithFreshness(age time.Duration, staleReason string) *Builder {
	f := &Freshness{StaleReason: staleReason}
	if age > 0 {
		f.Age = age.Round(time.Second).String()
	}
	m := b.meta()
	m.Freshness = f
	if staleReason != "" && m.Confidence != nil {
		m.Confidence.Tier = downgrade(m.Confidence.Tier)
		m.Confidence.Reasons = append(m.Confidence.Reasons, "stale: "+staleReason)
	}
	return b
}

// WithTruncation records that the result was trimmed.
func (b *Builder) WithTruncation(shown, total int, reason string) *Builder {
	b.meta().Truncation = &Truncation{
		IsTruncated: true,
		Shown:       shown,
		Total:       total,
		Reason:      reason,
	}
	return b
}

// WithCache records whether the graph came from the engine cache.
func (b *Builder) WithCache(hit bool, age time.Duration) *Builder {
	c := &CacheInfo{Hit: hit}
	if hit && age > 0 {
		c.Age = age.Round(time.Second).String()
	}
	b.meta().Cache = c
	return b
}

// SuggestCalls appends follow-up commands.
func (b *Builder) SuggestCalls(calls ...SuggestedCall) *Builder {
	b.resp.SuggestedNextCalls = append(b.resp.SuggestedNextCalls, calls...)
	return b
}

// Warning adds a warning without a code.
func (b *Builder) Warning(msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Message: msg})
	return b
}

// Warnings adds several uncoded warnings.
func (b *Builder) Warnings(msgs ...string) *Builder {
	for _, m := range msgs {
		b.Warning(m)
	}
	return b
}

// WarningWithCode adds a warning with a machine-readable code.
func (b *Builder) WarningWithCode(code, msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Code: code, Message: msg})
	return b
}

// Error marks the response failed. Any data already set is kept.
func (b *Builder) Error(err error) *Builder {
	if err == nil {
		return b
	}
	msg := err.Error()
	b.resp.Error = &msg
	b.resp.ErrorCode = string(errors.CodeOf(err))
	return b
}

// Build returns the finished envelope.
func (b *Builder) Build() *Response {
	b.resp.Success = b.resp.Error == nil
	return b.resp
}

// Operational wraps data that carries no graph metadata, such as version
// or health output.
func Operational(data interface{}) *Response {
	return New().Data(data).Build()
}

// Failure wraps a bare error.
func Failure(err error) *Response {
	return New().Error(err).Build()
}

// ParseSuggestion turns a command line such as
// "trace Checkout --direction backward --depth=3" into a SuggestedCall.
// The first positional argument after the command becomes the command's
// primary parameter.
func ParseSuggestion(line, reason string) SuggestedCall {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return SuggestedCall{Reason: reason}
	}
	call := SuggestedCall{Command: fields[0], Reason: reason}
	params := map[string]interface{}{}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if !strings.HasPrefix(f, "--") {
			if _, ok := params[primaryParam(call.Command)]; !ok {
				params[primaryParam(call.Command)] = f
			}
			continue
		}
		key := strings.TrimPrefix(f, "--")
		if k, v, ok := strings.Cut(key, "="); ok {
			params[k] = v
			continue
		}
		if i+1 < len(fields) && !strings.HasPrefix(fields[i+1], "--") {
			params[key] = fields[i+1]
			i++
			continue
		}
		params[key] = true
	}
	if len(params) > 0 {
		call.Params = params
	}
	return call
}

func primaryParam(command string) string {
	switch command {
	case "trace":
		return "component"
	case "subgraph":
		return "focus"
	case "snapshot":
		return "ref"
	}
	return "arg"
}

// WarningCodes returns the distinct warning codes, sorted.
func (r *Response) WarningCodes() []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range r.Warnings {
		if w.Code != "" && !seen[w.Code] {
			seen[w.Code] = true
			out = append(out, w.Code)
		}
	}
	sort.Strings(out)
	return out
}
