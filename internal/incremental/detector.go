package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"archgraph/internal/paths"
)

// DetectFileChanges classifies every current file as added, modified or
// unchanged against previous, and every previously recorded file missing
// from current as removed. A nil previous manifest means a first scan:
// everything is added.
func DetectFileChanges(current map[string]FileHash, previous *Manifest) FileChanges {
	var changes FileChanges
	var prevFiles map[string]FileHash
	if previous != nil {
		prevFiles = previous.Files
	}

	for p, cur := range current {
		prev, ok := prevFiles[p]
		switch {
		case !ok:
			changes.Added = append(changes.Added, p)
		case prev.Hash != cur.Hash:
			changes.Modified = append(changes.Modified, p)
		default:
			changes.Unchanged = append(changes.Unchanged, p)
		}
	}
	for p := range prevFiles {
		if _, ok := current[p]; !ok {
			changes.Removed = append(changes.Removed, p)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Removed)
	sort.Strings(changes.Unchanged)
	return changes
}

// HashError records a file that could not be hashed
type HashError struct {
	Path string
	Err  error
}

func (e HashError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// HashFiles hashes the repo-relative files under root concurrently.
// Unreadable files are left out of the result and reported separately.
func HashFiles(ctx context.Context, root string, files []string, workers int, now time.Time) (map[string]FileHash, []HashError, error) {
	if workers <= 0 {
		workers = DefaultConfig().Workers
	}
	var (
		mu     sync.Mutex
		out    = make(map[string]FileHash, len(files))
		failed []HashError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, size, err := hashFile(paths.JoinRepoPath(root, rel))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, HashError{Path: rel, Err: err})
				return nil
			}
			out[rel] = FileHash{Hash: hash, LastScanned: now.UTC(), Size: size}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Path < failed[j].Path })
	return out, failed, nil
}

// hashFile computes the SHA256 of a file
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close() //nolint:errcheck // read-only

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// CarryForward keeps the previous lastScanned time for unchanged files so
// an unchanged project produces an identical manifest.
func CarryForward(current map[string]FileHash, previous *Manifest) {
	if previous == nil {
		return
	}
	for p, cur := range current {
		if prev, ok := previous.Files[p]; ok && prev.Hash == cur.Hash {
			cur.LastScanned = prev.LastScanned
			current[p] = cur
		}
	}
}

// LoadManifest reads hashes.json. A missing file returns nil without error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filepath.Base(path), err)
	}
	if m.Files == nil {
		m.Files = map[string]FileHash{}
	}
	return &m, nil
}

// SaveManifest writes hashes.json atomically
func SaveManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return paths.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// CurrentCommit returns the HEAD commit of the git repository at root, or
// "" when root is not a repository or git is unavailable.
func CurrentCommit(ctx context.Context, root string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
