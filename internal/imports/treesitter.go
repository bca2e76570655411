//go:build cgo

package imports

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Available reports whether tree-sitter parsing is compiled in.
func Available() bool {
	return true
}

// sitter parsers are not safe for concurrent use
var parsers = sync.Pool{
	New: func() interface{} { return sitter.NewParser() },
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	case LangJava:
		return java.GetLanguage()
	case LangKotlin:
		return kotlin.GetLanguage()
	default:
		return nil
	}
}

func extractTree(ctx context.Context, lang Language, content []byte) ([]string, bool) {
	tsLang := getLanguage(lang)
	if tsLang == nil {
		return nil, false
	}

	parser := parsers.Get().(*sitter.Parser)
	defer parsers.Put(parser)

	parser.SetLanguage(tsLang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		return nil, false
	}
	root := tree.RootNode()

	var out []string
	walk(root, func(n *sitter.Node) bool {
		switch lang {
		case LangGo:
			if n.Type() == "import_spec" {
				if p := n.ChildByFieldName("path"); p != nil {
					out = append(out, unquote(p.Content(content)))
				}
				return false
			}
		case LangJavaScript, LangTypeScript, LangTSX:
			switch n.Type() {
			case "import_statement", "export_statement":
				if src := n.ChildByFieldName("source"); src != nil {
					out = append(out, unquote(src.Content(content)))
				}
			case "call_expression":
				if fn := n.ChildByFieldName("function"); fn != nil {
					name := fn.Content(content)
					if name == "require" || name == "import" || fn.Type() == "import" {
						if arg := firstStringArg(n, content); arg != "" {
							out = append(out, arg)
						}
					}
				}
			}
		case LangPython:
			switch n.Type() {
			case "import_statement":
				for i := 0; i < int(n.NamedChildCount()); i++ {
					c := n.NamedChild(i)
					if c.Type() == "aliased_import" {
						c = c.ChildByFieldName("name")
					}
					if c != nil {
						out = append(out, c.Content(content))
					}
				}
				return false
			case "import_from_statement":
				if m := n.ChildByFieldName("module_name"); m != nil {
					out = append(out, m.Content(content))
				}
				return false
			}
		case LangRust:
			switch n.Type() {
			case "use_declaration":
				if arg := n.ChildByFieldName("argument"); arg != nil {
					out = append(out, rustRoot(arg.Content(content)))
				}
				return false
			case "extern_crate_declaration":
				if name := n.ChildByFieldName("name"); name != nil {
					out = append(out, name.Content(content))
				}
				return false
			}
		case LangJava:
			if n.Type() == "import_declaration" {
				text := strings.TrimSuffix(strings.TrimSpace(n.Content(content)), ";")
				text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
				text = strings.TrimSpace(strings.TrimPrefix(text, "static"))
				out = append(out, text)
				return false
			}
		case LangKotlin:
			if n.Type() == "import_header" {
				for i := 0; i < int(n.NamedChildCount()); i++ {
					if c := n.NamedChild(i); c.Type() == "identifier" {
						out = append(out, c.Content(content))
					}
				}
				return false
			}
		}
		return true
	})
	return out, true
}

// walk visits nodes depth first; visit returns false to skip children
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

func firstStringArg(call *sitter.Node, content []byte) string {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if a := args.NamedChild(i); a.Type() == "string" {
			return unquote(a.Content(content))
		}
	}
	return ""
}

func unquote(s string) string {
	return strings.Trim(s, `"'`+"`")
}

// rustRoot keeps the path before any brace group: "tokio::sync::{mpsc, oneshot}" -> "tokio::sync"
func rustRoot(s string) string {
	if i := strings.Index(s, "::{"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, " as "); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
