package detect

import (
	"strings"
	"time"
	"unicode/utf8"

	"archgraph/internal/architecture"
)

const maxSnippet = 200

// Hit is a scored match: the component it names and the file it was seen in.
// Most detectors turn every kept hit into one component and one connection
// from the file to that component.
type Hit struct {
	File    string
	Line    int
	Symbol  string
	Snippet string

	Type     architecture.ComponentType
	Name     string
	Layer    architecture.Layer
	Purpose  string
	Critical bool
	Tags     []string
	Metadata map[string]interface{}

	Method         string
	ConnectionType architecture.ConnectionType
	Description    string
	Confidence     float64
	Now            time.Time
}

// ComponentID returns the ID of the component the hit names
func (h Hit) ComponentID() string {
	return architecture.ComponentID(h.Type, h.Name)
}

// Component materializes the hit's component
func (h Hit) Component() *architecture.Component {
	return &architecture.Component{
		ID:   h.ComponentID(),
		Name: h.Name,
		Type: h.Type,
		Role: architecture.Role{
			Purpose:  h.Purpose,
			Layer:    h.Layer,
			Critical: h.Critical,
		},
		Source: architecture.Source{
			Method:     h.Method,
			Files:      []string{h.File},
			Confidence: h.Confidence,
		},
		Status:    architecture.StatusActive,
		Tags:      append([]string(nil), h.Tags...),
		CreatedAt: h.Now,
		UpdatedAt: h.Now,
		Metadata:  h.Metadata,
	}
}

// Connection materializes the edge from the hit's file to its component.
// It returns nil when the hit has no connection type.
func (h Hit) Connection() *architecture.Connection {
	if h.ConnectionType == "" {
		return nil
	}
	from := architecture.FileRef(h.File)
	to := h.ComponentID()
	return &architecture.Connection{
		ID: architecture.ConnectionID(from, to, h.ConnectionType, h.File),
		From: architecture.Endpoint{
			ComponentID: from,
			Location:    &architecture.Location{File: h.File, Line: h.Line},
		},
		To:   architecture.Endpoint{ComponentID: to},
		Type: h.ConnectionType,
		CodeReference: architecture.CodeReference{
			File:      h.File,
			Symbol:    h.Symbol,
			LineStart: h.Line,
			LineEnd:   h.Line,
			Snippet:   Snippet(h.Snippet),
		},
		Description:  h.Description,
		DetectedFrom: h.Method,
		Confidence:   h.Confidence,
		Semantic:     &architecture.Semantic{Classification: architecture.ClassifyPath(h.File)},
		CreatedAt:    h.Now,
		UpdatedAt:    h.Now,
	}
}

// Snippet trims a source line for storage
func Snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
