package query

import (
	"time"

	"archgraph/internal/envelope"
	"archgraph/internal/errors"
)

// Envelope starts a response carrying the view's provenance, its mean
// connection confidence and any load warnings.
func (v *View) Envelope(now time.Time) *envelope.Builder {
	recs := v.Records
	var scannedAt time.Time
	if idx, err := v.engine.store.LoadIndex(); err == nil {
		scannedAt = idx.GeneratedAt
	}

	var sum float64
	for _, c := range recs.Connections {
		sum += c.Confidence
	}
	mean := 0.0
	if n := len(recs.Connections); n > 0 {
		mean = round3(sum / float64(n))
	}

	b := envelope.New().
		WithConfidence(mean, len(recs.Components) == 0).
		WithProvenance(v.engine.store.Layout().Root, len(recs.Components), len(recs.Connections), scannedAt)
	if !scannedAt.IsZero() && now.After(scannedAt) {
		b.WithFreshness(now.Sub(scannedAt), "")
	}
	for _, w := range v.Warnings() {
		b.WarningWithCode(string(errors.StoreCorrupt), w)
	}
	return b
}
