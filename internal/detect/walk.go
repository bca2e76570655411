package detect

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are never enumerated: VCS metadata, dependency caches, build
// output and test fixtures.
var skipDirs = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"node_modules":  true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"out":           true,
	"target":        true,
	".next":         true,
	".nuxt":         true,
	".cache":        true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".dart_tool":    true,
	"Pods":          true,
	"testdata":      true,
	"fixtures":      true,
	"__fixtures__":  true,
	"__mocks__":     true,
	".archgraph":    true,
	".terraform":    true,
	"coverage":      true,
	".pytest_cache": true,
}

// WalkOptions controls file enumeration
type WalkOptions struct {
	// StoreDir is skipped when it lives inside the project
	StoreDir string

	// Excludes are user globs; a bare directory name excludes the subtree
	Excludes []string

	// MaxFileSize skips larger files; zero means no limit
	MaxFileSize int64
}

// File is an enumerated project file
type File struct {
	Path string // repo-relative, slash separated
	Size int64
}

// Enumerate lists the project's candidate files in sorted order. Files
// over the size limit are reported as warnings rather than errors.
func Enumerate(root string, opts WalkOptions) ([]File, []Warning, error) {
	var (
		files    []File
		warnings []Warning
	)

	storeRel := ""
	if opts.StoreDir != "" {
		if rel, err := filepath.Rel(root, opts.StoreDir); err == nil && !strings.HasPrefix(rel, "..") {
			storeRel = filepath.ToSlash(rel)
		}
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			rel, _ := filepath.Rel(root, p)
			warnings = append(warnings, Warning{Type: WarnUnreadable, Message: err.Error(), File: filepath.ToSlash(rel)})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil //nolint:nilerr // outside root, skip
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if skipDirs[d.Name()] || rel == storeRel || isExcluded(rel, opts.Excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if isExcluded(rel, opts.Excludes) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			warnings = append(warnings, Warning{Type: WarnUnreadable, Message: infoErr.Error(), File: rel})
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			warnings = append(warnings, Warning{
				Type:    WarnTooLarge,
				Message: fmt.Sprintf("skipped: %d bytes exceeds limit of %d", info.Size(), opts.MaxFileSize),
				File:    rel,
			})
			return nil
		}
		files = append(files, File{Path: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("project root %s does not exist: %w", root, err)
		}
		return nil, warnings, fmt.Errorf("failed to walk project: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, warnings, nil
}

// Paths returns the relative paths of files
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// isExcluded checks a relative path against user exclude globs
func isExcluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if MatchGlob(pattern, rel) {
			return true
		}
		// Directory exclude: "generated" also matches "generated/foo.ts"
		dir := strings.TrimSuffix(pattern, "/") + "/"
		if strings.HasPrefix(rel, dir) {
			return true
		}
	}
	return false
}

// MatchGlob matches a slash-separated relative path. Patterns without a
// slash match the base name, "**/x" matches x at any depth and other
// patterns match the whole path.
func MatchGlob(pattern, rel string) bool {
	if strings.HasPrefix(pattern, "**/") {
		rest := strings.TrimPrefix(pattern, "**/")
		if MatchGlob(rest, rel) {
			return true
		}
		for i := 0; i < len(rel); i++ {
			if rel[i] == '/' {
				if ok, _ := path.Match(rest, rel[i+1:]); ok {
					return true
				}
			}
		}
		return false
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}
	ok, _ := path.Match(pattern, rel)
	return ok
}

// FilterInclude keeps the paths matching any include pattern. Empty
// patterns keep everything.
func FilterInclude(paths []string, include []string) []string {
	if len(include) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		for _, pattern := range include {
			if MatchGlob(pattern, p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Ignored reports whether a relative path falls under a skipped directory
// or a user exclude. The watcher uses it to drop events Enumerate would
// never pick up.
func Ignored(rel string, excludes []string) bool {
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if skipDirs[seg] {
			return true
		}
	}
	return isExcluded(rel, excludes)
}
