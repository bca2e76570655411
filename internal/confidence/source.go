package confidence

import (
	"bytes"
	"strings"
	"sync"
)

// Source is a file prepared for scoring: its lines, lazily lexed comment
// and string regions, and an optional import list for corroboration.
type Source struct {
	Path    string
	Content []byte
	Lines   []string

	syn     syntax
	once    sync.Once
	spans   [][]span
	imports func() ([]string, bool)

	importOnce  sync.Once
	importList  []string
	importKnown bool
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithImports supplies the file's import paths. The function is called at
// most once, the first time a hit needs corroboration. It reports false
// when the file's language cannot be parsed for imports.
func WithImports(fn func() ([]string, bool)) SourceOption {
	return func(s *Source) {
		s.imports = fn
	}
}

// NewSource prepares file content for scoring. path should be the
// repo-relative, slash-separated path.
func NewSource(path string, content []byte, opts ...SourceOption) *Source {
	s := &Source{
		Path:    path,
		Content: content,
		Lines:   splitLines(content),
		syn:     syntaxFor(path),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	lines := strings.Split(string(content), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Line returns the 1-indexed line, or "" when out of range
func (s *Source) Line(n int) string {
	if n < 1 || n > len(s.Lines) {
		return ""
	}
	return s.Lines[n-1]
}

// position describes what surrounds a byte offset on a line
type position struct {
	comment bool
	str     bool
	literal string
	prefix  string
}

func (s *Source) positionAt(line, col int) position {
	s.once.Do(func() {
		s.spans = lexLines(s.Lines, s.syn)
	})
	if line < 1 || line > len(s.spans) {
		return position{}
	}
	text := s.Lines[line-1]
	for _, sp := range s.spans[line-1] {
		switch sp.kind {
		case spanComment:
			if col >= sp.start && col < sp.end {
				return position{comment: true}
			}
		case spanString:
			// a match that begins on the opening quote is inside the literal
			if col >= sp.start-1 && col < sp.end {
				return position{str: true, literal: text[sp.start:sp.end], prefix: sp.prefix}
			}
		}
	}
	return position{}
}

// InComment reports whether the byte offset col on the 1-indexed line lies
// inside a comment.
func (s *Source) InComment(line, col int) bool {
	return s.positionAt(line, col).comment
}

// Imports returns the file's import paths. ok is false when no import
// list could be extracted for the file.
func (s *Source) Imports() (paths []string, ok bool) {
	s.importOnce.Do(func() {
		if s.imports != nil {
			s.importList, s.importKnown = s.imports()
		}
	})
	return s.importList, s.importKnown
}

// HasImport reports whether any import path contains one of the signatures.
// Files whose imports could not be extracted fall back to a content search;
// a file with an extracted but empty import list has none.
func (s *Source) HasImport(signatures []string) bool {
	imports, known := s.Imports()
	for _, sig := range signatures {
		if sig == "" {
			continue
		}
		if !known {
			if bytes.Contains(s.Content, []byte(sig)) {
				return true
			}
			continue
		}
		for _, imp := range imports {
			if strings.Contains(imp, sig) {
				return true
			}
		}
	}
	return false
}
