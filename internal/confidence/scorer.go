package confidence

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Evidence is one raw hit produced by a detector
type Evidence struct {
	// Line is 1-indexed; Column is the byte offset of the match on that line.
	Line   int
	Column int

	// Base is the detector's raw confidence before adjustments.
	Base float64

	// ImportSignatures are import paths that normally accompany this hit.
	// Empty means no corroboration is expected.
	ImportSignatures []string

	// ExpectString marks hits that are expected to sit in a string literal,
	// such as manifest entries or prompt text. They skip the string penalty
	// but comments still discard them.
	ExpectString bool
}

// Adjustment records one step of the pipeline
type Adjustment struct {
	Reason string  `json:"reason"`
	Delta  float64 `json:"delta"`
}

// Result is the outcome of scoring a hit
type Result struct {
	Confidence  float64      `json:"confidence"`
	Kept        bool         `json:"kept"`
	Discarded   string       `json:"discarded,omitempty"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
}

// Scorer applies the confidence pipeline with a fixed configuration
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer. A zero Config falls back to the defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's configuration
func (s *Scorer) Config() Config {
	return s.cfg
}

var (
	exampleKey = regexp.MustCompile(`(?i)\b(example|examples|snippet|sample|usage|code|demo)["']?\s*[:=]`)
	// x.y( or y(...) with the paren attached; "word (note)" is prose
	callSyntax = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)+\(|[A-Za-z_$][\w$]*\([^()]*\)`)
)

// Score runs the pipeline for one hit in src.
func (s *Scorer) Score(src *Source, ev Evidence) Result {
	res := Result{}
	conf := ev.Base

	// 1. line-level filter
	pos := src.positionAt(ev.Line, ev.Column)
	switch {
	case pos.comment:
		res.Discarded = "comment"
		return res
	case pos.str && !ev.ExpectString:
		if isExampleLiteral(pos) {
			res.Discarded = "example-string"
			return res
		}
		conf -= s.cfg.StringPenalty
		res.Adjustments = append(res.Adjustments, Adjustment{Reason: "string-literal", Delta: -s.cfg.StringPenalty})
	}

	// 2. file role
	if role, delta := s.fileRole(src.Path); delta != 0 {
		conf -= delta
		res.Adjustments = append(res.Adjustments, Adjustment{Reason: string(role), Delta: -delta})
	}

	// 3. corroboration
	if len(ev.ImportSignatures) > 0 && !src.HasImport(ev.ImportSignatures) {
		conf -= s.cfg.MissingImportPenalty
		res.Adjustments = append(res.Adjustments, Adjustment{Reason: "missing-import", Delta: -s.cfg.MissingImportPenalty})
	}

	// 4. clamp and floor
	res.Confidence = Clamp(conf)
	if res.Confidence < s.cfg.Floor {
		res.Discarded = fmt.Sprintf("below-floor(%.2f)", s.cfg.Floor)
		return res
	}
	res.Kept = true
	return res
}

// Keep is a convenience wrapper returning the final confidence and whether
// the hit survives.
func (s *Scorer) Keep(src *Source, ev Evidence) (float64, bool) {
	r := s.Score(src, ev)
	return r.Confidence, r.Kept
}

func isExampleLiteral(pos position) bool {
	if exampleKey.MatchString(pos.prefix) {
		return true
	}
	return callSyntax.MatchString(pos.literal)
}

// FileRole is the role a file plays for scoring purposes
type FileRole string

const (
	RoleSource    FileRole = "source"
	RoleDocs      FileRole = "documentation"
	RoleGenerated FileRole = "generated"
	RoleConfig    FileRole = "config"
)

// RoleOf classifies a repo-relative path
func RoleOf(p string) FileRole {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	ext := path.Ext(base)

	if ext == ".txt" && (strings.HasPrefix(base, "requirements") || strings.HasPrefix(base, "constraints")) {
		return RoleConfig
	}
	switch ext {
	case ".md", ".mdx", ".rst", ".adoc", ".txt":
		return RoleDocs
	}
	for _, seg := range strings.Split(path.Dir(lower), "/") {
		if seg == "docs" || seg == "doc" || seg == "documentation" {
			return RoleDocs
		}
		if seg == "generated" || seg == "__generated__" || seg == "gen" {
			return RoleGenerated
		}
	}
	switch {
	case strings.Contains(base, ".min."),
		strings.HasSuffix(base, ".d.ts"),
		strings.HasSuffix(base, ".pb.go"),
		strings.HasSuffix(base, "_pb2.py"),
		strings.HasSuffix(base, ".g.dart"),
		strings.HasSuffix(base, ".freezed.dart"),
		strings.Contains(base, ".generated."),
		strings.Contains(base, "_generated."),
		strings.HasSuffix(base, ".map"),
		strings.HasSuffix(base, ".bundle.js"):
		return RoleGenerated
	}
	switch ext {
	case ".json", ".yaml", ".yml", ".toml":
		return RoleConfig
	}
	return RoleSource
}

func (s *Scorer) fileRole(p string) (FileRole, float64) {
	role := RoleOf(p)
	switch role {
	case RoleDocs:
		return role, s.cfg.DocPenalty
	case RoleGenerated:
		return role, s.cfg.GeneratedPenalty
	case RoleConfig:
		return role, s.cfg.ConfigPenalty
	}
	return role, 0
}
