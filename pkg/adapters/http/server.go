package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/trees"
)

// Server holds the handler dependencies.
// Tree routes are only mounted when Trees is set.
type Server struct {
	Trees    *trees.Manager
	Options  []analysis.Option
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithTrees mounts the tree management routes over mgr.
func WithTrees(mgr *trees.Manager) Option {
	return func(s *Server) {
		s.Trees = mgr
	}
}

// WithEvaluationOptions forwards options to every validation and evaluation.
func WithEvaluationOptions(opts ...analysis.Option) Option {
	return func(s *Server) {
		s.Options = append(s.Options, opts...)
	}
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(opts ...Option) http.Handler {
	s := &Server{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.Routes())
}

// Routes builds the chi router without middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/validate", s.ValidateNodes)
	r.Post("/evaluate", s.EvaluateNodes)

	if s.Trees != nil {
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.ListTrees)
			r.Post("/", s.CreateTree)
			r.Route("/{treeID}", func(r chi.Router) {
				r.Get("/", s.GetTree)
				r.Put("/", s.UpdateTree)
				r.Delete("/", s.DeleteTree)
				r.Post("/duplicate", s.DuplicateTree)
				r.Get("/validate", s.ValidateTree)
				r.Get("/expected-value", s.EvaluateTree)
				r.Get("/optimal-path", s.OptimalPath)
				r.Get("/summary", s.SummarizeTree)
				r.Post("/nodes", s.AddNode)
				r.Put("/nodes/{nodeID}", s.UpdateNode)
				r.Delete("/nodes/{nodeID}", s.DeleteNode)
				r.Post("/nodes/{nodeID}/move", s.MoveNode)
			})
		})
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Canopy API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "canopy-http",
		"version":     strings.TrimSpace(canopy.Version),
		"api_version": apiVersion,
	})
}

type nodesRequest struct {
	Nodes []domain.Node `json:"nodes"`
}

// Evaluation is the response body of a successful evaluation.
type Evaluation struct {
	*analysis.Result
	OptimalPath []string `json:"optimal_path"`
}

// ValidateNodes handles the stateless POST /validate request.
func (s *Server) ValidateNodes(w http.ResponseWriter, r *http.Request) {
	nodes, ok := s.decodeNodes(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.Validate(nodes, s.Options...))
}

// EvaluateNodes handles the stateless POST /evaluate request.
func (s *Server) EvaluateNodes(w http.ResponseWriter, r *http.Request) {
	nodes, ok := s.decodeNodes(w, r)
	if !ok {
		return
	}
	s.evaluate(w, nodes)
}

func (s *Server) decodeNodes(w http.ResponseWriter, r *http.Request) ([]domain.Node, bool) {
	var body nodesRequest
	if !s.decode(w, r, &body) {
		return nil, false
	}
	if body.Nodes == nil {
		s.writeError(w, http.StatusBadRequest, "nodes is required")
		return nil, false
	}
	return body.Nodes, true
}

func (s *Server) evaluate(w http.ResponseWriter, nodes []domain.Node) {
	res, err := analysis.Evaluate(nodes, s.Options...)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, Evaluation{Result: res, OptimalPath: analysis.OptimalPath(res)})
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var rejected *analysis.RejectedError
	switch {
	case errors.As(err, &rejected):
		s.writeJSON(w, http.StatusUnprocessableEntity, rejected.Report)
	case errors.Is(err, domain.ErrNonFiniteResult), errors.Is(err, domain.ErrDepthExceeded):
		s.Logger.Warn("Evaluation aborted", "err", err)
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrTreeNotFound), errors.Is(err, domain.ErrNodeNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, trees.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidParent),
		errors.Is(err, domain.ErrCircularMove),
		errors.Is(err, domain.ErrNilInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.Logger.Error("Request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes before writing the header so an encode failure still
// yields a well-formed 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "response encoding failed"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
