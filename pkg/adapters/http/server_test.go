package http

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/trees"
)

func investNodes() []domain.Node {
	b := dsl.New()
	b.Add("root").Decision("Invest?").Cost(10)
	b.Add("invest").Chance("Invest").Under("root")
	b.Add("up").Chance("Market Up").Under("invest").Probability(0.6)
	b.Add("gain").Terminal("Gain", 500).Under("up")
	b.Add("down").Chance("Market Down").Under("invest").Probability(0.4)
	b.Add("loss").Terminal("Loss", -100).Under("down")
	return b.Build()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := NewHandler()

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[map[string]string](t, w)
	assert.Equal(t, "canopy-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(t, h, "OPTIONS", "/evaluate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPISpec(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Value("/trees/{treeID}/expected-value"))

	w := do(t, NewHandler(), "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestEvaluateNodes(t *testing.T) {
	h := NewHandler()

	t.Run("Accepted", func(t *testing.T) {
		w := do(t, h, "POST", "/evaluate", map[string]any{"nodes": investNodes()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody[map[string]any](t, w)
		assert.InDelta(t, 250.0, body["expected_value"], 1e-9)
		assert.Equal(t, "root", body["root_id"])
		assert.NotEmpty(t, body["optimal_path"])
	})

	t.Run("Rejected", func(t *testing.T) {
		nodes := investNodes()
		nodes[2].Probability = domain.Float(0.3)
		w := do(t, h, "POST", "/evaluate", map[string]any{"nodes": nodes})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		report := decodeBody[analysis.Report](t, w)
		assert.False(t, report.OK)
		require.NotEmpty(t, report.Errors)
		assert.Equal(t, analysis.CodeProbabilitySum, report.Errors[0].Code)
	})

	t.Run("Overflow", func(t *testing.T) {
		b := dsl.New()
		b.Add("root").Decision("Bet big?")
		b.Add("bet").Chance("Bet").Under("root")
		b.Add("a").Terminal("Jackpot A", 1.7e308).Under("bet")
		b.Add("b").Terminal("Jackpot B", 1.7e308).Under("bet")

		w := do(t, h, "POST", "/evaluate", map[string]any{"nodes": b.Build()})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		body := decodeBody[map[string]string](t, w)
		assert.Contains(t, body["error"], "not finite")
	})

	t.Run("Too Deep", func(t *testing.T) {
		b := dsl.New()
		b.Add("d0").Decision("D0")
		b.Add("d1").Decision("D1").Under("d0")
		b.Add("d2").Decision("D2").Under("d1")
		b.Add("leaf").Terminal("Leaf", 1).Under("d2")

		shallow := NewHandler(WithEvaluationOptions(analysis.WithMaxDepth(1)))
		w := do(t, shallow, "POST", "/evaluate", map[string]any{"nodes": b.Build()})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Contains(t, decodeBody[map[string]string](t, w)["error"], "too deep")
	})

	t.Run("Missing Nodes", func(t *testing.T) {
		w := do(t, h, "POST", "/evaluate", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "nodes is required")
	})

	t.Run("Malformed Body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/evaluate", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestValidateNodes(t *testing.T) {
	w := do(t, NewHandler(), "POST", "/validate", map[string]any{"nodes": []domain.Node{}})
	require.Equal(t, http.StatusOK, w.Code)
	report := decodeBody[analysis.Report](t, w)
	assert.False(t, report.OK)
	assert.Equal(t, analysis.CodeEmptyTree, report.Errors[0].Code)
}

func TestTreeRoutes(t *testing.T) {
	mgr := trees.NewManager(memory.NewStore())
	h := NewHandler(WithTrees(mgr))

	w := do(t, h, "POST", "/trees", trees.TreeInput{
		Name: "Invest",
		Root: &trees.RootInput{Name: "Invest?", Kind: "decision"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tree := decodeBody[domain.Tree](t, w)
	root := tree.Nodes[0].ID
	base := "/trees/" + tree.ID

	add := func(parent string, in trees.NodeInput) domain.Node {
		in.ParentID = parent
		w := do(t, h, "POST", base+"/nodes", in)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decodeBody[domain.Node](t, w)
	}
	p := func(v float64) *float64 { return &v }

	invest := add(root, trees.NodeInput{Kind: "chance", Name: "Invest"})
	up := add(invest.ID, trees.NodeInput{Kind: "chance", Name: "Market Up", Probability: p(0.6)})
	down := add(invest.ID, trees.NodeInput{Kind: "chance", Name: "Market Down", Probability: p(0.4)})
	add(up.ID, trees.NodeInput{Kind: "terminal", Name: "Gain", Utility: p(500)})
	add(down.ID, trees.NodeInput{Kind: "terminal", Name: "Loss", Utility: p(-100)})
	w = do(t, h, "PUT", base+"/nodes/"+root, trees.NodeInput{Kind: "decision", Name: "Invest?", Cost: 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("Expected Value", func(t *testing.T) {
		w := do(t, h, "GET", base+"/expected-value", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody[map[string]any](t, w)
		assert.InDelta(t, 250.0, body["expected_value"], 1e-9)
	})

	t.Run("Optimal Path", func(t *testing.T) {
		w := do(t, h, "GET", base+"/optimal-path", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Path []string `json:"path"`
		}](t, w)
		require.NotEmpty(t, body.Path)
		assert.Equal(t, "Start: Invest? (EV: 250.00)", body.Path[0])
	})

	t.Run("Summary", func(t *testing.T) {
		w := do(t, h, "GET", base+"/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)
		s := decodeBody[analysis.Summary](t, w)
		assert.Equal(t, 6, s.TotalNodes)
		assert.Equal(t, 2, s.TerminalNodes)
	})

	t.Run("Validate", func(t *testing.T) {
		w := do(t, h, "GET", base+"/validate", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeBody[analysis.Report](t, w).OK)
	})

	t.Run("Bad Input", func(t *testing.T) {
		w := do(t, h, "POST", base+"/nodes", trees.NodeInput{Kind: "oracle", Name: "X"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, h, "POST", base+"/nodes/"+invest.ID+"/move", trees.MoveInput{ParentID: up.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "circular")
	})

	t.Run("Duplicate And Delete", func(t *testing.T) {
		w := do(t, h, "POST", base+"/duplicate", map[string]string{"name": "Copy"})
		require.Equal(t, http.StatusCreated, w.Code)
		dup := decodeBody[domain.Tree](t, w)

		w = do(t, h, "GET", "/trees", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[[]domain.Tree](t, w), 2)

		w = do(t, h, "DELETE", "/trees/"+dup.ID+"/nodes/"+dup.Nodes[1].ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[map[string][]string](t, w)["deleted"], 5)

		w = do(t, h, "DELETE", "/trees/"+dup.ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = do(t, h, "GET", "/trees/"+dup.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Rejected Tree", func(t *testing.T) {
		w := do(t, h, "POST", "/trees", trees.TreeInput{Name: "Empty"})
		require.Equal(t, http.StatusCreated, w.Code)
		empty := decodeBody[domain.Tree](t, w)

		w = do(t, h, "GET", "/trees/"+empty.ID+"/expected-value", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestTreeRoutes_NotMounted(t *testing.T) {
	w := do(t, NewHandler(), "GET", "/trees", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := NewHandler(
		WithMetrics(reg),
		WithEvaluationOptions(analysis.WithHooks(m.Hooks())),
	)

	w := do(t, h, "POST", "/evaluate", map[string]any{"nodes": investNodes()})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `canopy_evaluations_total{rejected="false"} 1`)
	assert.Contains(t, w.Body.String(), "canopy_last_expected_value 250")
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	s := &Server{Logger: logging.NewNop()}
	w := httptest.NewRecorder()
	s.writeJSON(w, http.StatusOK, map[string]float64{"expected_value": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, decodeBody[map[string]string](t, w)["error"], "encoding failed")
}
