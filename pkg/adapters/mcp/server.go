package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// TreesURI is the resource listing the available tree IDs.
const TreesURI = "canopy://trees"

// TreeArgs selects the tree a tool works on: a stored tree by ID, or inline nodes.
type TreeArgs struct {
	TreeID string `json:"tree_id,omitempty"`
	Nodes  string `json:"nodes,omitempty"`
}

// EvaluateResponse is the structured output of evaluate_tree.
type EvaluateResponse struct {
	ExpectedValue float64            `json:"expected_value" jsonschema_description:"Expected value of the root"`
	RootID        string             `json:"root_id" jsonschema_description:"ID of the evaluated root"`
	Values        map[string]float64 `json:"values" jsonschema_description:"Expected value of every node"`
	Warnings      []string           `json:"warnings,omitempty" jsonschema_description:"Validation warnings"`
}

// PathResponse is the structured output of optimal_path.
type PathResponse struct {
	ExpectedValue float64  `json:"expected_value" jsonschema_description:"Expected value of the root"`
	Path          []string `json:"path" jsonschema_description:"Indented optimal path lines"`
}

// Server wraps the evaluator and exposes it as an MCP Server.
type Server struct {
	evaluator ports.Evaluator
	source    ports.TreeSource
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. source may be nil, in which case
// tools only accept inline nodes.
func NewServer(evaluator ports.Evaluator, source ports.TreeSource) *Server {
	s := &Server{
		evaluator: evaluator,
		source:    source,
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func treeParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("tree_id", mcp.Description("ID of a stored tree")),
		mcp.WithString("nodes", mcp.Description("JSON array of nodes, used when tree_id is empty")),
	}
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_tree",
		append(treeParams(),
			mcp.WithDescription("Check a decision tree for structural and probability errors."),
			mcp.WithOutputSchema[analysis.Report](),
		)...,
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	evaluateTool := mcp.NewTool("evaluate_tree",
		append(treeParams(),
			mcp.WithDescription("Compute the expected value of every node of a decision tree."),
			mcp.WithOutputSchema[EvaluateResponse](),
		)...,
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	pathTool := mcp.NewTool("optimal_path",
		append(treeParams(),
			mcp.WithDescription("Describe the best decisions and the outcomes they lead to."),
			mcp.WithOutputSchema[PathResponse](),
		)...,
	)
	s.mcpServer.AddTool(pathTool, mcp.NewStructuredToolHandler(s.handleOptimalPath))
}

// resolve loads the nodes named by args.
func (s *Server) resolve(ctx context.Context, args TreeArgs) ([]domain.Node, error) {
	if args.TreeID != "" {
		if s.source == nil {
			return nil, errors.New("no tree source configured; pass nodes instead")
		}
		tree, err := s.source.GetTree(ctx, args.TreeID)
		if err != nil {
			return nil, err
		}
		return tree.Nodes, nil
	}
	if args.Nodes == "" {
		return nil, errors.New("either tree_id or nodes is required")
	}
	var nodes []domain.Node
	if err := json.Unmarshal([]byte(args.Nodes), &nodes); err != nil {
		return nil, fmt.Errorf("invalid nodes: %w", err)
	}
	if nodes == nil {
		nodes = []domain.Node{}
	}
	return nodes, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args TreeArgs) (analysis.Report, error) {
	nodes, err := s.resolve(ctx, args)
	if err != nil {
		return analysis.Report{}, err
	}
	return s.evaluator.Validate(ctx, nodes), nil
}

func (s *Server) evaluate(ctx context.Context, args TreeArgs) (*analysis.Result, error) {
	nodes, err := s.resolve(ctx, args)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluator.Evaluate(ctx, nodes)
	if err != nil {
		slog.Warn("MCP: evaluation failed", "tree_id", args.TreeID, "err", err)
		return nil, err
	}
	return res, nil
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args TreeArgs) (EvaluateResponse, error) {
	res, err := s.evaluate(ctx, args)
	if err != nil {
		return EvaluateResponse{}, err
	}
	warnings := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		warnings[i] = w.Message
	}
	return EvaluateResponse{
		ExpectedValue: res.ExpectedValue,
		RootID:        res.RootID,
		Values:        res.Values(),
		Warnings:      warnings,
	}, nil
}

func (s *Server) handleOptimalPath(ctx context.Context, request mcp.CallToolRequest, args TreeArgs) (PathResponse, error) {
	res, err := s.evaluate(ctx, args)
	if err != nil {
		return PathResponse{}, err
	}
	return PathResponse{
		ExpectedValue: res.ExpectedValue,
		Path:          analysis.OptimalPath(res),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreesURI, "Available Trees",
		mcp.WithMIMEType("application/json"),
	), s.readTrees)
}

func (s *Server) readTrees(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids := []string{}
	if s.source != nil {
		var err error
		if ids, err = s.source.ListTrees(ctx); err != nil {
			return nil, fmt.Errorf("failed to list trees: %w", err)
		}
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TreesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
