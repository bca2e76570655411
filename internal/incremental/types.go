// Package incremental tracks file content hashes between scans and works
// out which files a re-scan has to look at.
package incremental

import (
	"sort"
	"time"
)

// ManifestVersion is written to hashes.json
const ManifestVersion = "1.0"

// ChangeType represents how a file changed since the previous scan
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeModified  ChangeType = "modified"
	ChangeRemoved   ChangeType = "removed"
	ChangeUnchanged ChangeType = "unchanged"
)

// FileHash is the recorded state of one file
type FileHash struct {
	Hash        string    `json:"hash"`
	LastScanned time.Time `json:"lastScanned"`
	Size        int64     `json:"size"`
}

// Manifest is the hashes.json document
type Manifest struct {
	Version     string              `json:"version"`
	GeneratedAt time.Time           `json:"generatedAt"`
	ProjectPath string              `json:"projectPath"`
	Files       map[string]FileHash `json:"files"`
}

// NewManifest builds a manifest for the given hashes
func NewManifest(projectPath string, files map[string]FileHash, now time.Time) *Manifest {
	if files == nil {
		files = map[string]FileHash{}
	}
	return &Manifest{
		Version:     ManifestVersion,
		GeneratedAt: now.UTC(),
		ProjectPath: projectPath,
		Files:       files,
	}
}

// Paths returns the manifest's file paths, sorted
func (m *Manifest) Paths() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Files))
	for p := range m.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FileChanges classifies the current file set against a previous manifest.
// Every list is sorted.
type FileChanges struct {
	Added     []string `json:"added"`
	Modified  []string `json:"modified"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// Changed returns the files a re-scan must read: added plus modified
func (c FileChanges) Changed() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	sort.Strings(out)
	return out
}

// HasChanges reports whether anything was added, modified or removed
func (c FileChanges) HasChanges() bool {
	return len(c.Added)+len(c.Modified)+len(c.Removed) > 0
}

// Of returns the change type recorded for path, or "" when unknown
func (c FileChanges) Of(path string) ChangeType {
	for _, group := range []struct {
		files []string
		t     ChangeType
	}{
		{c.Added, ChangeAdded},
		{c.Modified, ChangeModified},
		{c.Removed, ChangeRemoved},
		{c.Unchanged, ChangeUnchanged},
	} {
		i := sort.SearchStrings(group.files, path)
		if i < len(group.files) && group.files[i] == path {
			return group.t
		}
	}
	return ""
}

// Stats summarizes a change set
type Stats struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Stats counts each change type
func (c FileChanges) Stats() Stats {
	return Stats{
		Added:     len(c.Added),
		Modified:  len(c.Modified),
		Removed:   len(c.Removed),
		Unchanged: len(c.Unchanged),
	}
}

// Config configures incremental scanning
type Config struct {
	// IncrementalThreshold is the percentage of changed files above which
	// a full scan is cheaper than an incremental one.
	IncrementalThreshold int

	// Workers bounds concurrent hashing
	Workers int
}

// DefaultConfig returns the default incremental configuration
func DefaultConfig() *Config {
	return &Config{
		IncrementalThreshold: 50,
		Workers:              16,
	}
}

// PreferFullScan reports whether the change set is large enough that a
// full scan should run instead.
func (c *Config) PreferFullScan(changes FileChanges) bool {
	total := len(changes.Added) + len(changes.Modified) + len(changes.Unchanged)
	if total == 0 || c.IncrementalThreshold <= 0 {
		return false
	}
	changed := len(changes.Added) + len(changes.Modified)
	return changed*100 > total*c.IncrementalThreshold
}
