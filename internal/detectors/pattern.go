package detectors

import (
	"context"

	"archgraph/internal/confidence"
	"archgraph/internal/detect"
)

// codeGlobs are program source files
var codeGlobs = []string{
	"*.go", "*.js", "*.jsx", "*.mjs", "*.cjs", "*.ts", "*.tsx", "*.vue", "*.svelte",
	"*.py", "*.rb", "*.java", "*.kt", "*.kts", "*.scala", "*.swift", "*.m", "*.mm",
	"*.dart", "*.rs", "*.php", "*.cs", "*.ex", "*.exs",
}

// IsCode reports whether a repo-relative path is a program source file
func IsCode(rel string) bool {
	for _, g := range codeGlobs {
		if detect.MatchGlob(g, rel) {
			return true
		}
	}
	return false
}

// sourceGlobs are the files the source pattern detectors read: code plus
// env and config files, which are scored down by their file role.
var sourceGlobs = append(append([]string(nil), codeGlobs...),
	".env", ".env.*", "*.yaml", "*.yml", "*.toml", "*.json", "*.md",
)

const methodPattern = "pattern"

// patternDescriptor wraps a signature table in a source detector
func patternDescriptor(name string, sigs []*Signature) detect.Descriptor {
	return detect.Descriptor{
		Name:       name,
		Capability: detect.CapSource,
		Include:    sourceGlobs,
		Detect: func(ctx context.Context, in *detect.Input) (*detect.Result, error) {
			acc := detect.NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				for _, sig := range sigs {
					scanSignature(in, src, sig, acc)
				}
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		},
	}
}

// scanSignature records every kept match of sig's patterns in src
func scanSignature(in *detect.Input, src *confidence.Source, sig *Signature, acc *detect.Accumulator) {
	for _, p := range sig.Patterns {
		if !p.re.Match(src.Content) {
			continue
		}
		for i, line := range src.Lines {
			for _, loc := range p.re.FindAllStringIndex(line, -1) {
				ev := confidence.Evidence{
					Line:             i + 1,
					Column:           loc[0],
					Base:             sig.base(p),
					ImportSignatures: sig.Imports,
					ExpectString:     p.InString,
				}
				h := sig.hit(methodPattern, sig.connection(p))
				h.Symbol = line[loc[0]:loc[1]]
				if h, ok := in.Score(src, ev, h); ok {
					acc.AddHit(h)
				}
			}
		}
	}
}

// firstHit returns the best kept match of any of sigs in src
func firstHit(in *detect.Input, src *confidence.Source, sigs []*Signature) (detect.Hit, bool) {
	var best detect.Hit
	found := false
	for _, sig := range sigs {
		for _, p := range sig.Patterns {
			if !p.re.Match(src.Content) {
				continue
			}
			for i, line := range src.Lines {
				loc := p.re.FindStringIndex(line)
				if loc == nil {
					continue
				}
				ev := confidence.Evidence{
					Line:             i + 1,
					Column:           loc[0],
					Base:             sig.base(p),
					ImportSignatures: sig.Imports,
					ExpectString:     p.InString,
				}
				h, ok := in.Score(src, ev, sig.hit(methodPattern, sig.connection(p)))
				if ok && (!found || h.Confidence > best.Confidence) {
					best, found = h, true
				}
			}
		}
	}
	return best, found
}
