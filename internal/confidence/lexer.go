package confidence

import (
	"path"
	"strings"
)

// syntax describes the comment and string delimiters of a file type
type syntax struct {
	slash    bool // // and /* */
	hash     bool // # line comments
	dash     bool // -- line comments
	html     bool // <!-- -->
	single   bool // '...' strings
	backtick bool // `...` strings, may span lines
	triple   bool // """...""" and '''...''', may span lines
	noQuotes bool // prose: quotes do not delimit literals
}

var (
	cLike    = syntax{slash: true, single: true}
	jsLike   = syntax{slash: true, single: true, backtick: true}
	goLike   = syntax{slash: true, single: true, backtick: true}
	pyLike   = syntax{hash: true, single: true, triple: true}
	hashLike = syntax{hash: true, single: true}
	sqlLike  = syntax{dash: true, slash: true, single: true}
	markup   = syntax{html: true, noQuotes: true}
	plain    = syntax{noQuotes: true}
)

func syntaxFor(p string) syntax {
	base := strings.ToLower(path.Base(p))
	if base == "dockerfile" || strings.HasPrefix(base, "dockerfile.") || base == "makefile" || strings.HasPrefix(base, ".env") {
		return hashLike
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".go":
		return goLike
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".vue", ".svelte":
		s := jsLike
		s.html = true
		return s
	case ".java", ".kt", ".kts", ".swift", ".c", ".cc", ".cpp", ".h", ".hpp", ".cs", ".dart", ".scala", ".php", ".m", ".mm":
		return cLike
	case ".rs":
		s := cLike
		s.single = false // lifetimes
		return s
	case ".py", ".pyi":
		return pyLike
	case ".rb", ".sh", ".bash", ".zsh", ".yaml", ".yml", ".toml", ".r", ".pl", ".ex", ".exs", ".tf", ".hcl", ".cfg", ".ini", ".properties":
		s := hashLike
		if strings.HasSuffix(p, ".tf") || strings.HasSuffix(p, ".hcl") {
			s.slash = true
		}
		return s
	case ".sql":
		return sqlLike
	case ".html", ".htm", ".xml", ".plist", ".entitlements", ".md", ".mdx":
		return markup
	case ".json":
		return syntax{}
	}
	return plain
}

type spanKind int

const (
	spanComment spanKind = iota + 1
	spanString
)

// span is a comment or string-literal region within one line
type span struct {
	start, end int // byte offsets, end exclusive
	kind       spanKind
	prefix     string // line text before the opening delimiter (strings only)
}

type lexMode int

const (
	modeCode lexMode = iota
	modeBlock
	modeHTML
	modeDoc
	modeString
)

type lexState struct {
	mode   lexMode
	close  string // closing delimiter for block/doc/string modes
	prefix string // prefix captured when a string opened
}

// lexLines computes comment and string spans for every line. Block comments,
// backtick strings and triple-quoted strings carry across lines.
func lexLines(lines []string, syn syntax) [][]span {
	out := make([][]span, len(lines))
	st := lexState{mode: modeCode}
	for i, line := range lines {
		out[i], st = lexLine(line, syn, st)
	}
	return out
}

func lexLine(line string, syn syntax, st lexState) ([]span, lexState) {
	var spans []span
	start := 0

	i := 0
	for i <= len(line) {
		switch st.mode {
		case modeBlock, modeHTML, modeDoc:
			idx := strings.Index(line[i:], st.close)
			if idx < 0 {
				spans = append(spans, span{start: start, end: len(line), kind: spanComment})
				return spans, st
			}
			end := i + idx + len(st.close)
			spans = append(spans, span{start: start, end: end, kind: spanComment})
			st = lexState{mode: modeCode}
			i = end
			continue

		case modeString:
			j := i
			closed := false
			for j < len(line) {
				if line[j] == '\\' && len(st.close) == 1 && st.close != "`" {
					j += 2
					continue
				}
				if strings.HasPrefix(line[j:], st.close) {
					closed = true
					break
				}
				j++
			}
			if j > len(line) {
				j = len(line)
			}
			if !closed {
				spans = append(spans, span{start: start, end: len(line), kind: spanString, prefix: st.prefix})
				if len(st.close) == 1 && st.close != "`" {
					// ordinary quotes do not span lines
					return spans, lexState{mode: modeCode}
				}
				return spans, st
			}
			spans = append(spans, span{start: start, end: j, kind: spanString, prefix: st.prefix})
			i = j + len(st.close)
			st = lexState{mode: modeCode}
			continue
		}

		if i >= len(line) {
			break
		}
		rest := line[i:]
		c := line[i]

		switch {
		case syn.slash && strings.HasPrefix(rest, "//"):
			spans = append(spans, span{start: i, end: len(line), kind: spanComment})
			return spans, st
		case syn.hash && c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			spans = append(spans, span{start: i, end: len(line), kind: spanComment})
			return spans, st
		case syn.dash && strings.HasPrefix(rest, "--"):
			spans = append(spans, span{start: i, end: len(line), kind: spanComment})
			return spans, st
		case syn.slash && strings.HasPrefix(rest, "/*"):
			st = lexState{mode: modeBlock, close: "*/"}
			start = i
			i += 2
			continue
		case syn.html && strings.HasPrefix(rest, "<!--"):
			st = lexState{mode: modeHTML, close: "-->"}
			start = i
			i += 4
			continue
		case syn.triple && (strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`)):
			delim := rest[:3]
			if strings.TrimSpace(line[:i]) == "" {
				st = lexState{mode: modeDoc, close: delim}
				start = i
			} else {
				st = lexState{mode: modeString, close: delim, prefix: line[:i]}
				start = i + 3
			}
			i += 3
			continue
		case syn.noQuotes:
		case c == '"' || (syn.single && c == '\'') || (syn.backtick && c == '`'):
			st = lexState{mode: modeString, close: string(c), prefix: line[:i]}
			start = i + 1
			i++
			continue
		}
		i++
	}
	return spans, st
}
