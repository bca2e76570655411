// Package detect defines the detector contract and runs registered
// detectors over a project's files.
package detect

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Capability groups detectors by the kind of input they need
type Capability string

const (
	CapSource      Capability = "source"      // source code pattern matching
	CapManifest    Capability = "manifest"    // dependency manifests
	CapInfra       Capability = "infra"       // container and IaC files
	CapPrompt      Capability = "prompt"      // LLM prompt extraction
	CapEntitlement Capability = "entitlement" // platform capability declarations
)

// DetectFunc inspects the candidate files of in and reports what it found.
type DetectFunc func(ctx context.Context, in *Input) (*Result, error)

// Descriptor is a registered detector. Descriptors are plain values; the
// set is fixed when the binary is built.
type Descriptor struct {
	Name       string
	Capability Capability

	// Include restricts the candidate files. Patterns without a slash match
	// the base name; "**/" prefixes match at any depth. Empty means all files.
	Include []string

	Detect DetectFunc
}

// Registry is an ordered collection of detector descriptors
type Registry struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	byName      map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a descriptor. Names must be unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("detector name is required")
	}
	if d.Detect == nil {
		return fmt.Errorf("detector %q has no detect function", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("detector %q already registered", d.Name)
	}
	r.byName[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
	return nil
}

// MustRegister is Register for package-level wiring; it panics on error.
func (r *Registry) MustRegister(ds ...Descriptor) {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// All returns the descriptors in registration order
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Get looks up a descriptor by name
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Without returns a new registry minus the named detectors. Unknown names
// are ignored.
func (r *Registry) Without(names ...string) *Registry {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := NewRegistry()
	for _, d := range r.All() {
		if !skip[d.Name] {
			_ = out.Register(d)
		}
	}
	return out
}
