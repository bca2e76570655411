package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func noop(context.Context, *Input) (*Result, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "b", Detect: noop}))
	require.NoError(t, r.Register(Descriptor{Name: "a", Detect: noop}))

	assert.Error(t, r.Register(Descriptor{Name: "a", Detect: noop}), "duplicate name")
	assert.Error(t, r.Register(Descriptor{Name: "", Detect: noop}), "empty name")
	assert.Error(t, r.Register(Descriptor{Name: "c"}), "missing detect func")

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Name, "registration order is kept")
	assert.Equal(t, []string{"a", "b"}, r.Names())

	_, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, r.Without("a").Names())
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"*.go", "internal/api/server.go", true},
		{"*.go", "main.ts", false},
		{"package.json", "web/package.json", true},
		{"**/*.tf", "infra/prod/main.tf", true},
		{"**/*.tf", "main.tf", true},
		{"docs/*.md", "docs/a.md", true},
		{"docs/*.md", "x/docs/a.md", false},
		{"Dockerfile*", "deploy/Dockerfile.prod", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchGlob(tt.pattern, tt.path), "%s ~ %s", tt.pattern, tt.path)
	}
}

func TestEnumerate(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.go":                  "package main",
		"node_modules/x/index.js":  "x",
		"vendor/y/y.go":            "package y",
		"testdata/fixture.go":      "package fixture",
		".archgraph/components/a":  "{}",
		"generated/api.ts":         "x",
		"src/big.bin":              string(make([]byte, 2048)),
		"src/app.ts":               "export {}",
		"custom-store/hashes.json": "{}",
	})

	files, warnings, err := Enumerate(root, WalkOptions{
		StoreDir:    filepath.Join(root, "custom-store"),
		Excludes:    []string{"generated"},
		MaxFileSize: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "src/app.ts"}, Paths(files))
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnTooLarge, warnings[0].Type)
	assert.Equal(t, "src/big.bin", warnings[0].File)
}

func TestEnumerate_MissingRoot(t *testing.T) {
	_, _, err := Enumerate(filepath.Join(t.TempDir(), "nope"), WalkOptions{})
	assert.Error(t, err)
}

func hitDetector(name string, conf float64) Descriptor {
	return Descriptor{
		Name:    name,
		Include: []string{"*.go"},
		Detect: func(ctx context.Context, in *Input) (*Result, error) {
			acc := NewAccumulator()
			for _, f := range in.Files {
				acc.AddHit(Hit{
					File: f, Line: 1, Type: architecture.TypeDatabase, Name: "postgres",
					Layer: architecture.LayerDatabase, Method: name,
					ConnectionType: architecture.ConnStores, Confidence: conf, Now: in.Now,
				})
			}
			return acc.Result(), nil
		},
	}
}

func TestRunner_IsolatesFailures(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"db.go": "package db"})

	reg := NewRegistry()
	reg.MustRegister(
		hitDetector("weak", 0.6),
		Descriptor{Name: "boom", Detect: func(context.Context, *Input) (*Result, error) { panic("kaboom") }},
		Descriptor{Name: "broken", Detect: func(context.Context, *Input) (*Result, error) { return nil, errors.New("bad table") }},
		hitDetector("strong", 0.9),
	)

	res, err := NewRunner(reg, Options{Root: root, Workers: 4}).Run(context.Background(), []string{"db.go"})
	require.NoError(t, err)

	require.Len(t, res.Components, 1)
	assert.Equal(t, 0.9, res.Components[0].Source.Confidence)
	require.Len(t, res.Connections, 1)
	assert.Equal(t, 0.9, res.Connections[0].Confidence)

	var types []string
	for _, w := range res.Warnings {
		types = append(types, w.Type)
	}
	assert.ElementsMatch(t, []string{WarnDetectorPanic, WarnDetectorError}, types)
}

func TestRunner_IsolatesPanicsInFileCallbacks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"db.go": "package db", "cache.go": "package cache"})

	reg := NewRegistry()
	reg.MustRegister(
		hitDetector("strong", 0.9),
		Descriptor{Name: "boom", Include: []string{"*.go"}, Detect: func(ctx context.Context, in *Input) (*Result, error) {
			acc := NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				if src.Path == "db.go" {
					panic("bad pattern table")
				}
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		}},
	)

	res, err := NewRunner(reg, Options{Root: root, Workers: 2}).Run(context.Background(), []string{"cache.go", "db.go"})
	require.NoError(t, err)

	require.Len(t, res.Components, 1, "the healthy detector still reports")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnDetectorPanic, res.Warnings[0].Type)
	assert.Equal(t, "db.go", res.Warnings[0].File)
	assert.Contains(t, res.Warnings[0].Message, "bad pattern table")
}

func TestRunner_SkipsDetectorsWithoutCandidates(t *testing.T) {
	called := false
	reg := NewRegistry()
	reg.MustRegister(Descriptor{Name: "tf", Include: []string{"*.tf"}, Detect: func(context.Context, *Input) (*Result, error) {
		called = true
		return nil, nil
	}})
	_, err := NewRunner(reg, Options{Root: t.TempDir()}).Run(context.Background(), []string{"main.go"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestInput_EachReportsUnreadable(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.go": "package a\n"})

	in := NewInput(root, []string{"a.go", "missing.go"}, nil, nil)
	var seen []string
	warnings, err := in.Each(context.Background(), func(src *confidence.Source) {
		seen = append(seen, src.Path)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, seen)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnreadable, warnings[0].Type)
	assert.Equal(t, "missing.go", warnings[0].File)
}

func TestInput_ScoreDropsComments(t *testing.T) {
	in := NewInput(t.TempDir(), nil, nil, nil)
	src := confidence.NewSource("a.go", []byte("// redis.NewClient()\nc := redis.NewClient(o)\n"))

	_, ok := in.Score(src, confidence.Evidence{Line: 1, Column: 3, Base: 0.9}, Hit{})
	assert.False(t, ok)

	h, ok := in.Score(src, confidence.Evidence{Line: 2, Column: 5, Base: 0.9}, Hit{Name: "redis"})
	require.True(t, ok)
	assert.Equal(t, "a.go", h.File)
	assert.Equal(t, 2, h.Line)
	assert.Equal(t, 0.9, h.Confidence)
	assert.Equal(t, "c := redis.NewClient(o)", h.Snippet)
}

func TestInput_SourceCorroboratesWithExtractedImports(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/bare.ts":    "const c = stripe.customers.create({})\n",
		"src/client.ts":  "import Stripe from 'stripe'\nconst c = stripe.customers.create({})\n",
		"config/app.cfg": "const c = stripe.customers.create({})\n",
	})
	in := NewInput(root, nil, nil, nil)

	tests := []struct {
		file string
		line int
		want float64
	}{
		{"src/bare.ts", 1, 0.7},
		{"src/client.ts", 2, 0.9},
		{"config/app.cfg", 1, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			src, err := in.Source(context.Background(), tt.file)
			require.NoError(t, err)
			h, ok := in.Score(src, confidence.Evidence{Line: tt.line, Column: 10, Base: 0.9, ImportSignatures: []string{"stripe"}}, Hit{Name: "stripe"})
			require.True(t, ok)
			assert.InDelta(t, tt.want, h.Confidence, 1e-9)
		})
	}
}

func TestHit_ConnectionClassifiedFromPath(t *testing.T) {
	h := Hit{File: "tests/db_test.go", Line: 3, Type: architecture.TypeDatabase, Name: "postgres", ConnectionType: architecture.ConnStores, Confidence: 0.8}
	c := h.Connection()
	require.NotNil(t, c)
	assert.Equal(t, architecture.ClassTest, c.ClassificationOf())
	assert.Equal(t, architecture.FileRef("tests/db_test.go"), c.From.ComponentID)
	assert.Equal(t, h.ComponentID(), c.To.ComponentID)

	h.ConnectionType = ""
	assert.Nil(t, h.Connection())
}
