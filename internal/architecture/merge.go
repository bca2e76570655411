package architecture

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// MergeComponent folds a repeated detection into an existing component.
//
// The merged record keeps the highest confidence ever observed, the union
// of contributing files and tags, and the original creation time. Evidence
// is never diluted: a later, weaker match only adds files.
func MergeComponent(existing, incoming *Component) *Component {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	merged := *existing
	merged.Source.Files = unionSorted(existing.Source.Files, incoming.Source.Files)
	merged.Tags = unionSorted(existing.Tags, incoming.Tags)

	if incoming.Source.Confidence > existing.Source.Confidence {
		merged.Source.Confidence = incoming.Source.Confidence
		merged.Source.Method = incoming.Source.Method
		if incoming.Role.Purpose != "" {
			merged.Role.Purpose = incoming.Role.Purpose
		}
	}
	merged.Role.Critical = existing.Role.Critical || incoming.Role.Critical
	if merged.Role.Layer == "" {
		merged.Role.Layer = incoming.Role.Layer
	}
	if incoming.Status != "" && incoming.Status != StatusActive {
		merged.Status = incoming.Status
	}
	if merged.Status == "" {
		merged.Status = StatusActive
	}

	if len(incoming.Metadata) > 0 {
		md := make(map[string]interface{}, len(existing.Metadata)+len(incoming.Metadata))
		for k, v := range existing.Metadata {
			md[k] = v
		}
		for k, v := range incoming.Metadata {
			md[k] = v
		}
		merged.Metadata = md
	}

	merged.CreatedAt = earliest(existing.CreatedAt, incoming.CreatedAt)
	if incoming.UpdatedAt.After(existing.UpdatedAt) {
		merged.UpdatedAt = incoming.UpdatedAt
	}
	return &merged
}

// MergeConnection folds a repeated detection into an existing connection.
// The strongest evidence wins; on equal confidence the earliest line wins
// so the outcome does not depend on detection order.
func MergeConnection(existing, incoming *Connection) *Connection {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	merged := *existing
	if strongerEvidence(incoming, existing) {
		merged.Confidence = incoming.Confidence
		merged.CodeReference = incoming.CodeReference
		merged.From.Location = incoming.From.Location
		merged.To.Location = incoming.To.Location
		if incoming.Description != "" {
			merged.Description = incoming.Description
		}
		if incoming.DetectedFrom != "" {
			merged.DetectedFrom = incoming.DetectedFrom
		}
	}
	if merged.Semantic == nil && incoming.Semantic != nil {
		s := *incoming.Semantic
		merged.Semantic = &s
	}

	merged.CreatedAt = earliest(existing.CreatedAt, incoming.CreatedAt)
	if incoming.UpdatedAt.After(existing.UpdatedAt) {
		merged.UpdatedAt = incoming.UpdatedAt
	}
	return &merged
}

func strongerEvidence(a, b *Connection) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.CodeReference.LineStart != b.CodeReference.LineStart {
		if b.CodeReference.LineStart == 0 {
			return a.CodeReference.LineStart != 0
		}
		return a.CodeReference.LineStart != 0 && a.CodeReference.LineStart < b.CodeReference.LineStart
	}
	return a.CodeReference.Snippet < b.CodeReference.Snippet
}

// SameComponent reports whether two components carry the same content,
// ignoring UpdatedAt.
func SameComponent(a, b *Component) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.UpdatedAt, y.UpdatedAt = time.Time{}, time.Time{}
	return sameJSON(&x, &y)
}

// SameConnection reports whether two connections carry the same content,
// ignoring UpdatedAt.
func SameConnection(a, b *Connection) bool {
	if a == nil || b == nil {
		return a == b
	}
	x, y := *a, *b
	x.UpdatedAt, y.UpdatedAt = time.Time{}, time.Time{}
	return sameJSON(&x, &y)
}

// sameJSON compares encoded forms; metadata values that went through a
// JSON round trip (int vs float64) compare equal this way.
func sameJSON(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}
