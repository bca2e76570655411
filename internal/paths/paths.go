// Package paths resolves the store layout under a project and converts
// between absolute and project-relative paths.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStoreDir is the store directory name inside a project
const DefaultStoreDir = ".archgraph"

// Store layout names
const (
	ComponentsDir  = "components"
	ConnectionsDir = "connections"
	SnapshotsDir   = "snapshots"

	IndexFile       = "index.json"
	GraphFile       = "graph.json"
	FileMapFile     = "file_map.json"
	HashesFile      = "hashes.json"
	SummaryFile     = "SUMMARY.md"
	SummaryFullFile = "SUMMARY_FULL.md"
	PromptsFile     = "prompts.json"
	HistoryFile     = "history.db"
	ConfigFile      = "config.json"
	SignaturesFile  = "signatures.toml"
	RulesFile       = "rules.yaml"
)

// Layout is a resolved store directory
type Layout struct {
	Root string
}

// NewLayout resolves dir against projectRoot. An empty dir selects the
// default; absolute dirs are used as given.
func NewLayout(projectRoot, dir string) Layout {
	if dir == "" {
		dir = DefaultStoreDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	return Layout{Root: filepath.Clean(dir)}
}

// File returns the path of a top-level store file
func (l Layout) File(name string) string {
	return filepath.Join(l.Root, name)
}

// Components is the directory holding one JSON record per component
func (l Layout) Components() string { return filepath.Join(l.Root, ComponentsDir) }

// Connections is the directory holding one JSON record per connection
func (l Layout) Connections() string { return filepath.Join(l.Root, ConnectionsDir) }

// Snapshots is the snapshot directory
func (l Layout) Snapshots() string { return filepath.Join(l.Root, SnapshotsDir) }

func (l Layout) ComponentFile(id string) string {
	return filepath.Join(l.Components(), id+".json")
}

func (l Layout) ConnectionFile(id string) string {
	return filepath.Join(l.Connections(), id+".json")
}

func (l Layout) SnapshotFile(id string) string {
	return filepath.Join(l.Snapshots(), id+".json")
}

// Exists reports whether the store has been created
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// Ensure creates the store directories
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.Components(), l.Connections(), l.Snapshots()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// CanonicalizePath converts an absolute path to a project-relative,
// slash-separated path. Symlinks are resolved when the file exists.
func CanonicalizePath(absolutePath string, projectRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(projectRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = projectRoot
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRepo checks if a path is within the project root
func IsWithinRepo(path string, projectRoot string) bool {
	canonical, err := CanonicalizePath(path, projectRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinRepoPath joins a project root with a canonical path
func JoinRepoPath(projectRoot string, canonicalPath string) string {
	parts := strings.Split(strings.ReplaceAll(canonicalPath, "\\", "/"), "/")
	return filepath.Join(append([]string{projectRoot}, parts...)...)
}
