package architecture

import (
	"path"
	"strings"
)

// ClassifyPath infers a connection classification from the file the
// connection was detected in.
func ClassifyPath(p string) Classification {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ClassUnknown
	}
	base := path.Base(p)
	segments := strings.Split(path.Dir(p), "/")

	switch {
	case isTestFile(base) || hasSegment(segments, "test", "tests", "__tests__", "spec", "specs", "e2e", "integration_test"):
		return ClassTest
	case hasSegment(segments, "migrations", "migration", "migrate") || strings.Contains(base, "migration"):
		return ClassMigration
	case hasSegment(segments, "admin", "backoffice", "internal-tools"):
		return ClassAdmin
	case hasSegment(segments, "analytics", "tracking", "telemetry", "metrics"):
		return ClassAnalytics
	case hasSegment(segments, "scripts", "script", "dev", "examples", "example", "tools", "fixtures", "seeds", "seed"):
		return ClassDevOnly
	default:
		return ClassProduction
	}
}

func isTestFile(base string) bool {
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"),
		strings.HasSuffix(base, "_test.py"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "tests.swift"),
		strings.HasSuffix(base, "test.java"),
		strings.HasSuffix(base, "_spec.rb"):
		return true
	}
	return false
}

func hasSegment(segments []string, names ...string) bool {
	for _, s := range segments {
		for _, n := range names {
			if s == n {
				return true
			}
		}
	}
	return false
}

var frontendExts = map[string]bool{
	".tsx": true, ".jsx": true, ".vue": true, ".svelte": true,
	".html": true, ".css": true, ".scss": true, ".swift": true,
	".dart": true,
}

var frontendDirs = []string{
	"components", "pages", "app", "views", "ui", "frontend", "web",
	"client", "public", "screens", "widgets", "hooks",
}

// InferLayerFromPath guesses the layer of a source file. It is used for
// synthetic file nodes, which carry no detector-provided role.
func InferLayerFromPath(p string) Layer {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	ext := path.Ext(p)
	if frontendExts[ext] {
		return LayerFrontend
	}
	segments := strings.Split(path.Dir(p), "/")
	if hasSegment(segments, "server", "api", "backend", "services", "handlers", "cmd", "internal") {
		return LayerBackend
	}
	if hasSegment(segments, frontendDirs...) {
		return LayerFrontend
	}
	switch ext {
	case ".tf", ".hcl", ".yaml", ".yml":
		if hasSegment(segments, "infra", "deploy", "terraform", "k8s", "helm", ".github") {
			return LayerInfra
		}
	case ".sql":
		return LayerDatabase
	}
	if strings.HasPrefix(path.Base(p), "dockerfile") {
		return LayerInfra
	}
	return LayerBackend
}
