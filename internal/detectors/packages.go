package detectors

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
	"archgraph/internal/detect"
)

const (
	methodManifest = "manifest"
	manifestBase   = 0.9
	implyBase      = 0.8
)

var manifestGlobs = []string{
	"go.mod", "package.json", "requirements.txt", "requirements-*.txt", "requirements_*.txt",
	"Cargo.toml", "pyproject.toml", "pubspec.yaml",
}

// dependency is one entry of a manifest
type dependency struct {
	Name    string
	Version string
	Dev     bool
	Line    int
}

type manifestParser func(content []byte) ([]dependency, error)

func parserFor(p string) manifestParser {
	base := path.Base(p)
	switch {
	case base == "go.mod":
		return parseGoMod
	case base == "package.json":
		return parsePackageJSON
	case strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt"):
		return parseRequirements
	case base == "Cargo.toml":
		return parseCargo
	case base == "pyproject.toml":
		return parsePyproject
	case base == "pubspec.yaml":
		return parsePubspec
	}
	return nil
}

// packageDescriptor reports manifest dependencies as package components and
// links dependencies that imply a known technology to its component.
func packageDescriptor(catalog []*Signature) detect.Descriptor {
	return detect.Descriptor{
		Name:       "packages",
		Capability: detect.CapManifest,
		Include:    manifestGlobs,
		Detect: func(ctx context.Context, in *detect.Input) (*detect.Result, error) {
			acc := detect.NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				parse := parserFor(src.Path)
				if parse == nil {
					return
				}
				deps, err := parse(src.Content)
				if err != nil {
					acc.Warn(detect.Warning{Type: detect.WarnParse, Message: err.Error(), File: src.Path})
					return
				}
				for _, dep := range deps {
					recordDependency(in, src, dep, catalog, acc)
				}
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		},
	}
}

func recordDependency(in *detect.Input, src *confidence.Source, dep dependency, catalog []*Signature, acc *detect.Accumulator) {
	line := dep.Line
	if line == 0 {
		line = lineOf(src, dep.Name)
	}
	col := strings.Index(src.Line(line), dep.Name)
	if col < 0 {
		col = 0
	}
	ev := confidence.Evidence{Line: line, Column: col, Base: manifestBase, ExpectString: true}

	h := detect.Hit{
		Type:           architecture.TypePackage,
		Name:           dep.Name,
		Layer:          architecture.LayerShared,
		Purpose:        "dependency",
		Symbol:         dep.Name,
		Method:         methodManifest,
		ConnectionType: architecture.ConnDependsOn,
		Description:    fmt.Sprintf("%s depends on %s", path.Base(src.Path), dep.Name),
	}
	if dep.Version != "" {
		h.Metadata = map[string]interface{}{"version": dep.Version}
	}
	if dep.Dev {
		h.Tags = []string{"dev"}
	}
	if h, ok := in.Score(src, ev, h); ok {
		acc.AddHit(h)
	}

	for _, sig := range catalog {
		if !sig.matchesPackage(dep.Name) {
			continue
		}
		sh := sig.hit(methodManifest, architecture.ConnDependsOn)
		sh.Symbol = dep.Name
		ev.Base = implyBase
		if sh, ok := in.Score(src, ev, sh); ok {
			acc.AddHit(sh)
		}
	}
}

// lineOf returns the first 1-indexed line mentioning needle, or 1
func lineOf(src *confidence.Source, needle string) int {
	quoted := `"` + needle + `"`
	for i, l := range src.Lines {
		if strings.Contains(l, quoted) {
			return i + 1
		}
	}
	for i, l := range src.Lines {
		if strings.Contains(l, needle) {
			return i + 1
		}
	}
	return 1
}

func parseGoMod(content []byte) ([]dependency, error) {
	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil, err
	}
	deps := make([]dependency, 0, len(f.Require))
	for _, r := range f.Require {
		d := dependency{Name: r.Mod.Path, Version: r.Mod.Version, Dev: r.Indirect}
		if r.Syntax != nil {
			d.Line = r.Syntax.Start.Line
		}
		deps = append(deps, d)
	}
	return deps, nil
}

func parsePackageJSON(content []byte) ([]dependency, error) {
	var pkg struct {
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, err
	}
	var deps []dependency
	deps = appendDeps(deps, pkg.Dependencies, false)
	deps = appendDeps(deps, pkg.PeerDependencies, false)
	deps = appendDeps(deps, pkg.DevDependencies, true)
	return deps, nil
}

func appendDeps(deps []dependency, m map[string]string, dev bool) []dependency {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		deps = append(deps, dependency{Name: n, Version: m[n], Dev: dev})
	}
	return deps
}

var requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[[^\]]*\])?\s*(.*)$`)

func parseRequirements(content []byte) ([]dependency, error) {
	var deps []dependency
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if j := strings.Index(line, " #"); j >= 0 {
			line = strings.TrimSpace(line[:j])
		}
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m := requirementName.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		version := strings.TrimSpace(strings.SplitN(m[2], ";", 2)[0])
		deps = append(deps, dependency{Name: strings.ToLower(m[1]), Version: version, Line: i + 1})
	}
	return deps, nil
}

func parseCargo(content []byte) ([]dependency, error) {
	var manifest struct {
		Dependencies    map[string]interface{} `toml:"dependencies"`
		DevDependencies map[string]interface{} `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return nil, err
	}
	var deps []dependency
	deps = appendDeps(deps, versions(manifest.Dependencies), false)
	deps = appendDeps(deps, versions(manifest.DevDependencies), true)
	return deps, nil
}

func parsePyproject(content []byte) ([]dependency, error) {
	var manifest struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies    map[string]interface{} `toml:"dependencies"`
				DevDependencies map[string]interface{} `toml:"dev-dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(content, &manifest); err != nil {
		return nil, err
	}
	reqs, _ := parseRequirements([]byte(strings.Join(manifest.Project.Dependencies, "\n")))
	deps := make([]dependency, 0, len(reqs))
	for _, r := range reqs {
		r.Line = 0
		deps = append(deps, r)
	}
	poetry := versions(manifest.Tool.Poetry.Dependencies)
	delete(poetry, "python")
	deps = appendDeps(deps, poetry, false)
	deps = appendDeps(deps, versions(manifest.Tool.Poetry.DevDependencies), true)
	return deps, nil
}

func parsePubspec(content []byte) ([]dependency, error) {
	var spec struct {
		Dependencies    map[string]interface{} `yaml:"dependencies"`
		DevDependencies map[string]interface{} `yaml:"dev_dependencies"`
	}
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, err
	}
	var deps []dependency
	deps = appendDeps(deps, versions(spec.Dependencies), false)
	deps = appendDeps(deps, versions(spec.DevDependencies), true)
	return deps, nil
}

// versions flattens dependency tables whose values are either a version
// string or a table with a version key.
func versions(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for name, v := range m {
		switch val := v.(type) {
		case string:
			out[name] = val
		case map[string]interface{}:
			if s, ok := val["version"].(string); ok {
				out[name] = s
			} else {
				out[name] = ""
			}
		default:
			out[name] = ""
		}
	}
	return out
}
