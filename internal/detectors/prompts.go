package detectors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"archgraph/internal/architecture"
	"archgraph/internal/confidence"
	"archgraph/internal/detect"
)

// MetaPromptContent is the metadata key carrying the full prompt text
const MetaPromptContent = architecture.MetaPromptContent

const (
	methodPrompt     = "prompt-extraction"
	minPromptLength  = 40
	promptPreviewLen = 120
	promptBase       = 0.85
)

var (
	// SYSTEM_PROMPT = """...   systemPrompt: `...   summary_instructions = "...
	promptVar = regexp.MustCompile(`(?i)\b([a-z_$][\w$]*(?:prompt|instructions?|persona)[\w$]*)\s*(?::\s*[\w.<>\[\]]+\s*)?(?:=|:)\s*(?:[frbu]{1,2})?("""|'''|"|'|` + "`" + `)`)

	// {"role": "system", "content": "...   or   role: 'system', content: `...
	systemMessage = regexp.MustCompile(`(?i)["']?role["']?\s*[:=]\s*["']system["']\s*,\s*["']?content["']?\s*[:=]\s*(?:[frbu]{1,2})?("""|'''|"|'|` + "`" + `)`)
)

func promptDescriptor(llm []*Signature) detect.Descriptor {
	return detect.Descriptor{
		Name:       "prompts",
		Capability: detect.CapPrompt,
		Include:    codeGlobs,
		Detect: func(ctx context.Context, in *detect.Input) (*detect.Result, error) {
			acc := detect.NewAccumulator()
			warnings, err := in.Each(ctx, func(src *confidence.Source) {
				scanPrompts(in, src, llm, acc)
			})
			acc.Warn(warnings...)
			return acc.Result(), err
		},
	}
}

type promptMatch struct {
	line    int
	column  int
	symbol  string
	content string
}

func scanPrompts(in *detect.Input, src *confidence.Source, llm []*Signature, acc *detect.Accumulator) {
	var found []promptMatch
	for i, line := range src.Lines {
		if m := promptVar.FindStringSubmatchIndex(line); m != nil {
			text := literalFrom(src.Lines, i, m[4], line[m[4]:m[5]])
			found = append(found, promptMatch{line: i + 1, column: m[0], symbol: line[m[2]:m[3]], content: text})
			continue
		}
		if m := systemMessage.FindStringSubmatchIndex(line); m != nil {
			text := literalFrom(src.Lines, i, m[2], line[m[2]:m[3]])
			found = append(found, promptMatch{line: i + 1, column: m[0], symbol: fmt.Sprintf("system@%d", i+1), content: text})
		}
	}
	if len(found) == 0 {
		return
	}

	model, hasModel := firstHit(in, src, llm)
	for _, pm := range found {
		if utf8.RuneCountInString(strings.TrimSpace(pm.content)) < minPromptLength {
			continue
		}
		h := detect.Hit{
			Type:           architecture.TypePrompt,
			Name:           src.Path + "#" + pm.symbol,
			Layer:          architecture.InferLayerFromPath(src.Path),
			Purpose:        "llm prompt",
			Symbol:         pm.symbol,
			Method:         methodPrompt,
			ConnectionType: architecture.ConnPromptLocation,
			Description:    fmt.Sprintf("prompt %s defined here", pm.symbol),
			Metadata: map[string]interface{}{
				"variable":        pm.symbol,
				"length":          utf8.RuneCountInString(pm.content),
				"preview":         preview(pm.content),
				MetaPromptContent: pm.content,
			},
		}
		ev := confidence.Evidence{Line: pm.line, Column: pm.column, Base: promptBase, ExpectString: true}
		h, ok := in.Score(src, ev, h)
		if !ok {
			continue
		}
		acc.AddHit(h)

		if hasModel {
			acc.AddHit(model)
			acc.AddConnection(promptUsage(h, model))
		}
	}
}

// promptUsage links a prompt to the model client used in the same file
func promptUsage(prompt, model detect.Hit) *architecture.Connection {
	from, to := prompt.ComponentID(), model.ComponentID()
	conf := prompt.Confidence
	if model.Confidence < conf {
		conf = model.Confidence
	}
	return &architecture.Connection{
		ID: architecture.ConnectionID(from, to, architecture.ConnPromptUsage, prompt.File),
		From: architecture.Endpoint{
			ComponentID: from,
			Location:    &architecture.Location{File: prompt.File, Line: prompt.Line},
		},
		To:   architecture.Endpoint{ComponentID: to},
		Type: architecture.ConnPromptUsage,
		CodeReference: architecture.CodeReference{
			File:      model.File,
			Symbol:    prompt.Symbol,
			LineStart: model.Line,
			LineEnd:   model.Line,
			Snippet:   detect.Snippet(model.Snippet),
		},
		Description:  fmt.Sprintf("prompt %s sent to %s", prompt.Symbol, model.Name),
		DetectedFrom: methodPrompt,
		Confidence:   conf,
		Semantic:     &architecture.Semantic{Classification: architecture.ClassifyPath(prompt.File)},
		CreatedAt:    prompt.Now,
		UpdatedAt:    prompt.Now,
	}
}

// literalFrom reads the string literal opened by delim at byte offset col
// of lines[start]. Triple-quoted and backtick literals may span lines.
func literalFrom(lines []string, start, col int, delim string) string {
	rest := lines[start][col+len(delim):]
	multi := delim == "`" || len(delim) == 3
	if !multi {
		return singleLine(rest, delim[0])
	}
	if end := strings.Index(rest, delim); end >= 0 {
		return rest[:end]
	}
	var b strings.Builder
	b.WriteString(rest)
	for i := start + 1; i < len(lines); i++ {
		b.WriteByte('\n')
		if end := strings.Index(lines[i], delim); end >= 0 {
			b.WriteString(lines[i][:end])
			return strings.TrimSpace(b.String())
		}
		b.WriteString(lines[i])
	}
	// unterminated
	return strings.TrimSpace(b.String())
}

func singleLine(s string, quote byte) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == quote {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= promptPreviewLen {
		return s
	}
	r := []rune(s)
	return string(r[:promptPreviewLen]) + "..."
}
