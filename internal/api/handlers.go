package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"archgraph/internal/architecture"
	"archgraph/internal/envelope"
	"archgraph/internal/errors"
	"archgraph/internal/query"
	"archgraph/internal/rules"
	"archgraph/internal/storage"
)

// ComponentDetail is a component with its edges and, for prompts, the
// full prompt text
type ComponentDetail struct {
	*architecture.Component
	Outgoing []*architecture.Connection `json:"outgoing"`
	Incoming []*architecture.Connection `json:"incoming"`
	Prompt   *storage.PromptRecord      `json:"prompt,omitempty"`
}

// ComponentList is the /v1/components payload
type ComponentList struct {
	Components []*query.Node `json:"components"`
	Total      int           `json:"total"`
}

// RulesPayload is the /v1/rules payload
type RulesPayload struct {
	*rules.Result
	Rules []rules.Rule `json:"rules"`
}

func (s *Server) view(c *gin.Context) (*query.View, bool) {
	v, err := s.engine.Load(c.Request.Context())
	if err != nil {
		fail(c, nil, err)
		return nil, false
	}
	return v, true
}

func (s *Server) handleComponents(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	typ := strings.ToLower(c.Query("type"))
	layer := strings.ToLower(c.Query("layer"))
	q := strings.ToLower(c.Query("q"))

	list := ComponentList{Components: []*query.Node{}}
	for _, comp := range v.Graph.Components() {
		if typ != "" && string(comp.Type) != typ {
			continue
		}
		if layer != "" && string(comp.Role.Layer) != layer {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(comp.Name), q) {
			continue
		}
		if n, ok := v.Graph.Node(comp.ID); ok {
			list.Components = append(list.Components, n)
		}
	}
	sort.Slice(list.Components, func(i, j int) bool { return list.Components[i].Name < list.Components[j].Name })
	list.Total = len(list.Components)

	respond(c, v.Envelope(s.opts.Now()).Data(list).Build())
}

func (s *Server) handleComponent(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	id := c.Param("id")
	node, found := v.Graph.Node(id)
	if !found {
		if matches := v.Graph.Resolve(id); len(matches) == 1 {
			node, found = v.Graph.Node(matches[0])
		}
	}
	if !found || node.Component == nil {
		fail(c, v.Envelope(s.opts.Now()), errors.Newf(errors.ComponentNotFound, "component %q not found", id))
		return
	}

	detail := ComponentDetail{
		Component: node.Component,
		Outgoing:  orEmpty(v.Graph.Outgoing(node.ID)),
		Incoming:  orEmpty(v.Graph.Incoming(node.ID)),
	}
	b := v.Envelope(s.opts.Now())
	if node.Type == architecture.TypePrompt {
		prompts, err := s.engine.Store().Prompts()
		if err != nil {
			b.Warning("prompt text unavailable: " + err.Error())
		} else if p, ok := prompts[node.ID]; ok {
			detail.Prompt = &p
		}
	}
	respond(c, b.Data(detail).Build())
}

func (s *Server) handleTrace(c *gin.Context) {
	name := strings.TrimSpace(c.Query("component"))
	if name == "" {
		badRequest(c, "component is required")
		return
	}
	depth, err := intParam(c, "depth")
	if err != nil {
		fail(c, nil, err)
		return
	}
	maxPaths, err := intParam(c, "maxPaths")
	if err != nil {
		fail(c, nil, err)
		return
	}
	class, err := classificationParam(c)
	if err != nil {
		fail(c, nil, err)
		return
	}

	v, ok := s.view(c)
	if !ok {
		return
	}
	res := v.Trace(name, query.TraceOptions{
		Direction:      query.ParseDirection(c.Query("direction")),
		MaxDepth:       depth,
		Classification: class,
		MaxPaths:       maxPaths,
	})

	b := v.Envelope(s.opts.Now()).Data(res)
	if res.Truncated {
		b.WithTruncation(len(res.Paths), 0, "max-paths")
	}
	if len(res.Query.Resolved) == 0 {
		b.WarningWithCode(string(errors.ComponentNotFound), "no component matches "+name)
	} else if len(res.Paths) > 0 {
		b.SuggestCalls(envelope.ParseSuggestion("subgraph "+res.Query.Resolved[0], "view the neighbourhood as a diagram"))
	}
	respond(c, b.Build())
}

func (s *Server) handleSubgraph(c *gin.Context) {
	depth, err := intParam(c, "depth")
	if err != nil {
		fail(c, nil, err)
		return
	}
	maxNodes, err := intParam(c, "maxNodes")
	if err != nil {
		fail(c, nil, err)
		return
	}
	class, err := classificationParam(c)
	if err != nil {
		fail(c, nil, err)
		return
	}
	layers, err := layersParam(c)
	if err != nil {
		fail(c, nil, err)
		return
	}

	v, ok := s.view(c)
	if !ok {
		return
	}
	res := v.Subgraph(query.SubgraphOptions{
		Focus:          listParam(c, "focus"),
		Depth:          depth,
		Layers:         layers,
		Classification: class,
		MaxNodes:       maxNodes,
	})

	if c.Query("format") == "mermaid" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(res.Diagram))
		return
	}
	b := v.Envelope(s.opts.Now()).Data(res)
	if res.Truncated {
		b.WithTruncation(res.Stats.Nodes, 0, "max-nodes")
	}
	respond(c, b.Build())
}

func (s *Server) handleCoverage(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	report := v.Coverage()
	b := v.Envelope(s.opts.Now()).
		Data(report).
		WithConfidence(report.OverallConfidence, len(v.Records.Components) == 0,
			envelope.ConfidenceFactor{Factor: "connection_confidence", Status: "mean", Impact: report.ConnectionCoverage.MeanConfidence},
			envelope.ConfidenceFactor{Factor: "file_coverage", Status: "ratio", Impact: report.ComponentCoverage.Ratio},
		)
	respond(c, b.Build())
}

func (s *Server) handleRules(c *gin.Context) {
	v, ok := s.view(c)
	if !ok {
		return
	}
	opts := s.opts.Rules
	b := v.Envelope(s.opts.Now())

	custom, err := rules.LoadFile(s.opts.RulesFile)
	if err != nil {
		// built-ins still run; the error rides along with the data
		b.Error(err)
	}
	opts.Custom = custom

	res := rules.Evaluate(v.Records, opts)
	respond(c, b.Data(RulesPayload{Result: res, Rules: rules.Rules(custom)}).Build())
}

func orEmpty(conns []*architecture.Connection) []*architecture.Connection {
	if conns == nil {
		return []*architecture.Connection{}
	}
	return conns
}
