package detect

import (
	"sort"
	"sync"

	"archgraph/internal/architecture"
)

// Warning types
const (
	WarnUnreadable    = "unreadable-file"
	WarnTooLarge      = "file-too-large"
	WarnParse         = "parse-error"
	WarnDetectorError = "detector-error"
	WarnDetectorPanic = "detector-panic"
)

// Warning is a non-fatal problem recorded during detection
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// Result is what a detector (or a whole run) produced
type Result struct {
	Components  []*architecture.Component  `json:"components"`
	Connections []*architecture.Connection `json:"connections"`
	Warnings    []Warning                  `json:"warnings,omitempty"`
}

// Accumulator collects detections from concurrent producers. Records with
// the same ID are merged as they arrive, so the outcome does not depend on
// arrival order.
type Accumulator struct {
	mu          sync.Mutex
	components  map[string]*architecture.Component
	connections map[string]*architecture.Connection
	warnings    []Warning
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		components:  make(map[string]*architecture.Component),
		connections: make(map[string]*architecture.Connection),
	}
}

// AddComponent merges c into the accumulated set
func (a *Accumulator) AddComponent(c *architecture.Component) {
	if c == nil {
		return
	}
	a.mu.Lock()
	a.components[c.ID] = architecture.MergeComponent(a.components[c.ID], c)
	a.mu.Unlock()
}

// AddConnection merges c into the accumulated set
func (a *Accumulator) AddConnection(c *architecture.Connection) {
	if c == nil {
		return
	}
	a.mu.Lock()
	a.connections[c.ID] = architecture.MergeConnection(a.connections[c.ID], c)
	a.mu.Unlock()
}

// AddHit records the component and file connection for a scored hit
func (a *Accumulator) AddHit(h Hit) {
	a.AddComponent(h.Component())
	a.AddConnection(h.Connection())
}

// Warn appends warnings
func (a *Accumulator) Warn(ws ...Warning) {
	if len(ws) == 0 {
		return
	}
	a.mu.Lock()
	a.warnings = append(a.warnings, ws...)
	a.mu.Unlock()
}

// Add merges a whole result
func (a *Accumulator) Add(r *Result) {
	if r == nil {
		return
	}
	for _, c := range r.Components {
		a.AddComponent(c)
	}
	for _, c := range r.Connections {
		a.AddConnection(c)
	}
	a.Warn(r.Warnings...)
}

// Result returns the accumulated records sorted by ID
func (a *Accumulator) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := &Result{
		Components:  make([]*architecture.Component, 0, len(a.components)),
		Connections: make([]*architecture.Connection, 0, len(a.connections)),
		Warnings:    append([]Warning(nil), a.warnings...),
	}
	for _, c := range a.components {
		res.Components = append(res.Components, c)
	}
	for _, c := range a.connections {
		res.Connections = append(res.Connections, c)
	}
	sort.Slice(res.Components, func(i, j int) bool { return res.Components[i].ID < res.Components[j].ID })
	sort.Slice(res.Connections, func(i, j int) bool { return res.Connections[i].ID < res.Connections[j].ID })
	sort.SliceStable(res.Warnings, func(i, j int) bool {
		wi, wj := res.Warnings[i], res.Warnings[j]
		if wi.File != wj.File {
			return wi.File < wj.File
		}
		if wi.Type != wj.Type {
			return wi.Type < wj.Type
		}
		return wi.Message < wj.Message
	})
	return res
}
