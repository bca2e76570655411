// Package detectors holds the built-in detectors and their pattern tables.
package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"archgraph/internal/architecture"
	"archgraph/internal/detect"
)

// Pattern is one regular expression identifying a signature in source code.
type Pattern struct {
	Expr string

	// Conn overrides the signature's connection type, e.g. producer vs
	// consumer calls of the same queue client.
	Conn architecture.ConnectionType

	// InString marks patterns that only ever match inside string literals
	// (connection URLs, hostnames); they skip the string penalty.
	InString bool

	// Base overrides the signature's base confidence
	Base float64

	re *regexp.Regexp
}

// Signature identifies one external technology
type Signature struct {
	Name       string
	Type       architecture.ComponentType
	Layer      architecture.Layer
	Purpose    string
	Critical   bool
	Connection architecture.ConnectionType
	Base       float64

	Patterns []Pattern

	// Imports are import-path fragments that corroborate a pattern hit
	Imports []string

	// Packages are manifest dependency names that imply this technology
	Packages []string

	// Images are container image names that imply this technology
	Images []string
}

func (s *Signature) compile() error {
	if s.Base == 0 {
		s.Base = 0.85
	}
	for i := range s.Patterns {
		re, err := regexp.Compile(s.Patterns[i].Expr)
		if err != nil {
			return fmt.Errorf("signature %s: pattern %q: %w", s.Name, s.Patterns[i].Expr, err)
		}
		s.Patterns[i].re = re
	}
	return nil
}

func mustCompile(sigs []*Signature) []*Signature {
	for _, s := range sigs {
		if err := s.compile(); err != nil {
			panic(err)
		}
	}
	return sigs
}

func (s *Signature) base(p Pattern) float64 {
	if p.Base > 0 {
		return p.Base
	}
	return s.Base
}

func (s *Signature) connection(p Pattern) architecture.ConnectionType {
	if p.Conn != "" {
		return p.Conn
	}
	return s.Connection
}

// hit builds the detection for this signature; the caller scores it
func (s *Signature) hit(method string, conn architecture.ConnectionType) detect.Hit {
	return detect.Hit{
		Type:           s.Type,
		Name:           s.Name,
		Layer:          s.Layer,
		Purpose:        s.Purpose,
		Critical:       s.Critical,
		Method:         method,
		ConnectionType: conn,
		Description:    fmt.Sprintf("%s %s", strings.ReplaceAll(string(conn), "-", " "), s.Name),
	}
}

// matchesPackage reports whether a manifest dependency implies s
func (s *Signature) matchesPackage(dep string) bool {
	dep = strings.ToLower(dep)
	for _, p := range s.Packages {
		p = strings.ToLower(p)
		if dep == p || strings.HasPrefix(dep, p+"/") {
			return true
		}
	}
	return false
}

// matchesImage reports whether a container image implies s
func (s *Signature) matchesImage(image string) bool {
	name := imageName(image)
	for _, img := range s.Images {
		if name == img {
			return true
		}
	}
	return false
}

// imageName strips registry, namespace and tag: "docker.io/bitnami/redis:7" -> "redis"
func imageName(image string) string {
	image = strings.ToLower(strings.TrimSpace(image))
	if i := strings.Index(image, "@"); i >= 0 {
		image = image[:i]
	}
	if i := strings.LastIndex(image, "/"); i >= 0 {
		image = image[i+1:]
	}
	if i := strings.Index(image, ":"); i >= 0 {
		image = image[:i]
	}
	return image
}

// signatureFile is the on-disk format of user signatures
type signatureFile struct {
	Signature []struct {
		Name       string   `toml:"name"`
		Type       string   `toml:"type"`
		Layer      string   `toml:"layer"`
		Purpose    string   `toml:"purpose"`
		Critical   bool     `toml:"critical"`
		Connection string   `toml:"connection"`
		Confidence float64  `toml:"confidence"`
		Patterns   []string `toml:"patterns"`
		Strings    []string `toml:"strings"`
		Imports    []string `toml:"imports"`
		Packages   []string `toml:"packages"`
		Images     []string `toml:"images"`
	} `toml:"signature"`
}

// LoadSignatures reads user-defined signatures from a TOML file:
//
//	[[signature]]
//	name = "acme-billing"
//	type = "service"
//	patterns = ['acmebilling\.NewClient\(']
//	imports = ["acme/billing"]
func LoadSignatures(path string) ([]*Signature, error) {
	var file signatureFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}

	out := make([]*Signature, 0, len(file.Signature))
	for i, raw := range file.Signature {
		if raw.Name == "" {
			return nil, fmt.Errorf("%s: signature %d has no name", path, i+1)
		}
		t := architecture.ParseComponentType(raw.Type)
		sig := &Signature{
			Name:       raw.Name,
			Type:       t,
			Layer:      architecture.Layer(raw.Layer),
			Purpose:    raw.Purpose,
			Critical:   raw.Critical,
			Connection: architecture.ConnectionType(raw.Connection),
			Base:       raw.Confidence,
			Imports:    raw.Imports,
			Packages:   raw.Packages,
			Images:     raw.Images,
		}
		if sig.Layer == "" {
			sig.Layer = defaultLayer(t)
		}
		if sig.Connection == "" {
			sig.Connection = defaultConnection(t)
		}
		for _, p := range raw.Patterns {
			sig.Patterns = append(sig.Patterns, Pattern{Expr: p})
		}
		for _, p := range raw.Strings {
			sig.Patterns = append(sig.Patterns, Pattern{Expr: p, InString: true})
		}
		if err := sig.compile(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, sig)
	}
	return out, nil
}

func defaultLayer(t architecture.ComponentType) architecture.Layer {
	switch t {
	case architecture.TypeDatabase:
		return architecture.LayerDatabase
	case architecture.TypeQueue:
		return architecture.LayerQueue
	case architecture.TypeInfra:
		return architecture.LayerInfra
	case architecture.TypeService, architecture.TypeLLM:
		return architecture.LayerExternal
	case architecture.TypeFramework:
		return architecture.LayerBackend
	default:
		return architecture.LayerShared
	}
}

func defaultConnection(t architecture.ComponentType) architecture.ConnectionType {
	switch t {
	case architecture.TypeDatabase:
		return architecture.ConnStores
	case architecture.TypeQueue:
		return architecture.ConnPublishes
	case architecture.TypeFramework, architecture.TypePackage:
		return architecture.ConnImports
	case architecture.TypeInfra:
		return architecture.ConnHosts
	default:
		return architecture.ConnServiceCall
	}
}
