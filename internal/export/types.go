// Package export writes the stored graph as a single zstd-compressed JSON
// bundle and reads it back. It also renders an outline of the graph grouped
// by layer for pasting into an LLM context window.
package export

import (
	"time"

	"archgraph/internal/architecture"
	"archgraph/internal/storage"
)

// BundleVersion is bumped whenever the bundle layout changes
const BundleVersion = 1

// Extension is the conventional bundle file extension
const Extension = ".archgraph.zst"

// Bundle is the full graph of one project
type Bundle struct {
	Version     int                             `json:"version"`
	GeneratedAt time.Time                       `json:"generatedAt"`
	Tool        string                          `json:"tool"`
	ProjectPath string                          `json:"projectPath,omitempty"`
	Stats       BundleStats                     `json:"stats"`
	Components  []*architecture.Component       `json:"components"`
	Connections []*architecture.Connection      `json:"connections"`
	Prompts     map[string]storage.PromptRecord `json:"prompts,omitempty"`
	FileMap     storage.FileMap                 `json:"fileMap,omitempty"`
}

// BundleStats summarizes a bundle
type BundleStats struct {
	Components  int `json:"components"`
	Connections int `json:"connections"`
	Files       int `json:"files"`
	Prompts     int `json:"prompts"`
}

// Options configures bundle creation
type Options struct {
	// ProjectPath is recorded for reference only
	ProjectPath string

	// Level is the zstd level: "fastest", "default", "better" or "best"
	Level string

	// OmitPrompts drops full prompt text from the bundle
	OmitPrompts bool

	Now func() time.Time
}
