// Package imports extracts the import paths of a source file.
//
// With cgo enabled the supported languages are parsed with tree-sitter.
// Everything else, and every language when cgo is off, goes through the
// line-oriented regex scanner.
package imports

import (
	"bufio"
	"bytes"
	"context"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Language identifies a source language
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangDart       Language = "dart"
	LangSwift      Language = "swift"
	LangRuby       Language = "ruby"
)

var extLanguages = map[string]Language{
	".go":    LangGo,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".mjs":   LangJavaScript,
	".cjs":   LangJavaScript,
	".ts":    LangTypeScript,
	".tsx":   LangTSX,
	".py":    LangPython,
	".pyi":   LangPython,
	".rs":    LangRust,
	".java":  LangJava,
	".kt":    LangKotlin,
	".kts":   LangKotlin,
	".dart":  LangDart,
	".swift": LangSwift,
	".rb":    LangRuby,
}

// LanguageFromPath returns the language for a file path
func LanguageFromPath(p string) (Language, bool) {
	lang, ok := extLanguages[strings.ToLower(path.Ext(p))]
	return lang, ok
}

// Extract returns the sorted, de-duplicated import paths of a file. ok is
// false for unsupported languages; a supported file without imports yields
// nil and true.
func Extract(ctx context.Context, p string, content []byte) (paths []string, ok bool) {
	lang, ok := LanguageFromPath(p)
	if !ok {
		return nil, false
	}
	if found, ok := extractTree(ctx, lang, content); ok {
		return dedupe(found), true
	}
	return dedupe(ScanRegex(lang, content)), true
}

var regexPatterns = map[Language][]*regexp.Regexp{
	LangTypeScript: jsPatterns,
	LangTSX:        jsPatterns,
	LangJavaScript: jsPatterns,
	LangDart: {
		regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`^\s*export\s+['"]([^'"]+)['"]`),
	},
	LangGo: {
		regexp.MustCompile(`^\s*import\s+(?:\w+\s+)?"([^"]+)"`),
	},
	LangPython: {
		regexp.MustCompile(`^\s*from\s+([^\s]+)\s+import`),
		regexp.MustCompile(`^\s*import\s+([^\s,;]+)`),
	},
	LangRust: {
		regexp.MustCompile(`^\s*(?:pub\s+)?use\s+([^;{\s]+)`),
		regexp.MustCompile(`^\s*extern\s+crate\s+([^;\s]+)`),
	},
	LangJava: {
		regexp.MustCompile(`^\s*import\s+(?:static\s+)?([^;\s]+);`),
	},
	LangKotlin: {
		regexp.MustCompile(`^\s*import\s+([^\s;]+)`),
	},
	LangSwift: {
		regexp.MustCompile(`^\s*(?:@testable\s+)?import\s+(?:\w+\s+)?([\w.]+)`),
	},
	LangRuby: {
		regexp.MustCompile(`^\s*require(?:_relative)?\s*\(?\s*['"]([^'"]+)['"]`),
	},
}

var jsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`export\s+.*?from\s+['"]([^'"]+)['"]`),
	regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
	regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`),
}

// goBlockLine matches one entry inside a Go import ( ... ) block
var goBlockLine = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)

// ScanRegex extracts imports line by line. It is the fallback when no
// parser is available for the language.
func ScanRegex(lang Language, content []byte) []string {
	patterns := regexPatterns[lang]
	if len(patterns) == 0 {
		return nil
	}

	var out []string
	inGoBlock := false
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if lang == LangGo {
			trimmed := strings.TrimSpace(line)
			if inGoBlock {
				if strings.HasPrefix(trimmed, ")") {
					inGoBlock = false
					continue
				}
				if m := goBlockLine.FindStringSubmatch(line); m != nil {
					out = append(out, m[1])
				}
				continue
			}
			if strings.HasPrefix(trimmed, "import (") || trimmed == "import(" {
				inGoBlock = true
				continue
			}
		}

		for _, re := range patterns {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				if len(m) > 1 {
					if s := strings.TrimSpace(m[1]); s != "" {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.Trim(strings.TrimSpace(s), `"'`+"`")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
