package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph/internal/architecture"
	"archgraph/internal/paths"
	"archgraph/internal/query"
	"archgraph/internal/rules"
	"archgraph/internal/slogutil"
	"archgraph/internal/storage"
	"archgraph/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	store  *storage.Store
	dir    string
}

func newFixture(t *testing.T, seed bool, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := slogutil.NewDiscardLogger()
	store := storage.New(paths.NewLayout(dir, ""), storage.Options{Logger: logger})

	if seed {
		g := testutil.NewGraph()
		web := g.Component("checkout-ui", architecture.TypePackage, architecture.LayerFrontend, 0.9)
		api := g.Component("orders-api", architecture.TypeService, architecture.LayerBackend, 0.95)
		db := g.Component("postgres", architecture.TypeDatabase, architecture.LayerDatabase, 0.85)
		prompt := g.Component("agent.py#SYSTEM_PROMPT", architecture.TypePrompt, architecture.LayerBackend, 0.8)
		prompt.Metadata = map[string]interface{}{architecture.MetaPromptContent: "Summarize the order."}
		g.Connect(web.ID, api.ID, architecture.ConnServiceCall, 0.9)
		g.Connect(api.ID, db.ID, architecture.ConnStores, 0.8)
		g.Connect(web.ID, db.ID, architecture.ConnStores, 0.7)

		recs := g.Records()
		ctx := context.Background()
		_, err := store.PutComponents(ctx, recs.Components)
		require.NoError(t, err)
		_, err = store.PutConnections(ctx, recs.Connections)
		require.NoError(t, err)
	}

	opts.Logger = logger
	opts.Now = func() time.Time { return testutil.Epoch }
	engine := query.NewEngine(store, logger, query.Limits{})
	return &fixture{server: NewServer(engine, opts), store: store, dir: dir}
}

type envelopeBody struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *string         `json:"error"`
	ErrorCode string          `json:"errorCode"`
	Warnings  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"warnings"`
	Meta struct {
		Truncation *struct {
			IsTruncated bool   `json:"isTruncated"`
			Reason      string `json:"reason"`
		} `json:"truncation"`
		Provenance *struct {
			Components int `json:"components"`
		} `json:"provenance"`
	} `json:"meta"`
}

func (f *fixture) get(t *testing.T, url string) (*httptest.ResponseRecorder, envelopeBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	var body envelopeBody
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false, Options{})
	w, body := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var h HealthResponse
	require.NoError(t, json.Unmarshal(body.Data, &h))
	assert.Equal(t, "healthy", h.Status)
}

func TestReady(t *testing.T) {
	w, _ := newFixture(t, false, Options{}).get(t, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, body := newFixture(t, true, Options{}).get(t, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	var r ReadyResponse
	require.NoError(t, json.Unmarshal(body.Data, &r))
	assert.True(t, r.Ready)
	assert.Equal(t, 4, r.Components)
}

func TestTrace(t *testing.T) {
	f := newFixture(t, true, Options{})

	w, body := f.get(t, "/v1/trace?component=checkout-ui&direction=forward&depth=3")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, body.Success)
	assert.Equal(t, 4, body.Meta.Provenance.Components)

	var res query.TraceResult
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, query.Forward, res.Query.Direction)
	assert.Equal(t, 3, res.Query.MaxDepth)
	assert.Len(t, res.Paths, 2)
	assert.Equal(t, []string{"checkout-ui", "orders-api", "postgres"}, res.ComponentsTouched)
}

func TestTrace_UnknownComponentWarns(t *testing.T) {
	w, body := newFixture(t, true, Options{}).get(t, "/v1/trace?component=nope")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, "COMPONENT_NOT_FOUND", body.Warnings[0].Code)
}

func TestTrace_BadParams(t *testing.T) {
	f := newFixture(t, true, Options{})
	for _, url := range []string{
		"/v1/trace",
		"/v1/trace?component=x&depth=-1",
		"/v1/trace?component=x&depth=deep",
		"/v1/trace?component=x&classification=secret",
		"/v1/subgraph?layers=middleware",
	} {
		w, body := f.get(t, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.False(t, body.Success, url)
		assert.Equal(t, "INVALID_ARGUMENT", body.ErrorCode, url)
	}
}

func TestSubgraph(t *testing.T) {
	f := newFixture(t, true, Options{})

	w, body := f.get(t, "/v1/subgraph?focus=postgres&depth=1")
	require.Equal(t, http.StatusOK, w.Code)
	var res query.SubgraphResult
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, 3, res.Stats.Nodes)
	assert.Equal(t, 3, res.Stats.Edges)
	assert.True(t, strings.HasPrefix(res.Diagram, "graph LR\n"))

	w, body = f.get(t, "/v1/subgraph?maxNodes=2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, body.Meta.Truncation)
	assert.Equal(t, "max-nodes", body.Meta.Truncation.Reason)

	w, _ = f.get(t, "/v1/subgraph?focus=postgres&format=mermaid")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph LR\n"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestCoverage(t *testing.T) {
	w, body := newFixture(t, true, Options{}).get(t, "/v1/coverage")
	require.Equal(t, http.StatusOK, w.Code)
	var rep query.CoverageReport
	require.NoError(t, json.Unmarshal(body.Data, &rep))
	assert.Equal(t, 3, rep.ConnectionCoverage.Total)
	assert.GreaterOrEqual(t, rep.OverallConfidence, 0.0)
	assert.LessOrEqual(t, rep.OverallConfidence, 1.0)
}

func TestCoverage_EmptyStore(t *testing.T) {
	w, body := newFixture(t, false, Options{}).get(t, "/v1/coverage")
	require.Equal(t, http.StatusOK, w.Code)
	var rep query.CoverageReport
	require.NoError(t, json.Unmarshal(body.Data, &rep))
	assert.Equal(t, 0.0, rep.OverallConfidence)
}

func TestRules(t *testing.T) {
	f := newFixture(t, true, Options{})
	w, body := f.get(t, "/v1/rules")
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Violations []struct {
			Rule      string `json:"rule"`
			Component string `json:"component"`
		} `json:"violations"`
		Rules []struct {
			ID      string `json:"id"`
			Builtin bool   `json:"builtin"`
		} `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	var ids []string
	for _, v := range payload.Violations {
		ids = append(ids, v.Rule+":"+v.Component)
	}
	assert.Contains(t, ids, rules.RuleFrontendDirectDB+":postgres")
	assert.Contains(t, ids, rules.RuleOrphan+":agent.py#SYSTEM_PROMPT")
	assert.Len(t, payload.Rules, 7)
}

func TestRules_InvalidFileKeepsBuiltins(t *testing.T) {
	rulesFile := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte("rules:\n  - id: broken\n    severity: fatal\n"), 0o644))

	f := newFixture(t, true, Options{RulesFile: rulesFile})
	w, body := f.get(t, "/v1/rules")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "INVALID_RULE_FILE", body.ErrorCode)
	assert.Contains(t, string(body.Data), "frontend-direct-db")
}

func TestComponents(t *testing.T) {
	f := newFixture(t, true, Options{})

	_, body := f.get(t, "/v1/components")
	var list ComponentList
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Equal(t, 4, list.Total)

	_, body = f.get(t, "/v1/components?layer=backend&q=api")
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "orders-api", list.Components[0].Name)
}

func TestComponent(t *testing.T) {
	f := newFixture(t, true, Options{})

	w, body := f.get(t, "/v1/components/orders-api")
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Name     string            `json:"name"`
		Outgoing []json.RawMessage `json:"outgoing"`
		Incoming []json.RawMessage `json:"incoming"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	assert.Equal(t, "orders-api", detail.Name)
	assert.Len(t, detail.Outgoing, 1)
	assert.Len(t, detail.Incoming, 1)

	id := architecture.ComponentID(architecture.TypePrompt, "agent.py#SYSTEM_PROMPT")
	_, body = f.get(t, "/v1/components/"+id)
	var prompt struct {
		Prompt *storage.PromptRecord `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &prompt))
	require.NotNil(t, prompt.Prompt)
	assert.Equal(t, "Summarize the order.", prompt.Prompt.Content)

	w, body = f.get(t, "/v1/components/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COMPONENT_NOT_FOUND", body.ErrorCode)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, true, Options{RateLimit: 0.001, RateBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := f.get(t, "/v1/coverage")
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w, _ := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code, "health is exempt")
}

func TestMetricsAndNoRoute(t *testing.T) {
	f := newFixture(t, false, Options{})
	f.get(t, "/health")

	w, _ := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "archgraph_http_requests_total")

	w, body := f.get(t, "/v2/nothing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor("RATE_LIMITED"))
}
