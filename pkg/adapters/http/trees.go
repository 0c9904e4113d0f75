package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/trees"
)

// ListTrees handles GET /trees.
func (s *Server) ListTrees(w http.ResponseWriter, r *http.Request) {
	list, err := s.Trees.ListTrees(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// CreateTree handles POST /trees.
func (s *Server) CreateTree(w http.ResponseWriter, r *http.Request) {
	var in trees.TreeInput
	if !s.decode(w, r, &in) {
		return
	}
	tree, err := s.Trees.CreateTree(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tree)
}

// GetTree handles GET /trees/{treeID}.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Trees.GetTree(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

// UpdateTree handles PUT /trees/{treeID}.
func (s *Server) UpdateTree(w http.ResponseWriter, r *http.Request) {
	var patch trees.TreePatch
	if !s.decode(w, r, &patch) {
		return
	}
	tree, err := s.Trees.UpdateTree(r.Context(), chi.URLParam(r, "treeID"), patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

// DeleteTree handles DELETE /trees/{treeID}.
func (s *Server) DeleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.Trees.DeleteTree(r.Context(), chi.URLParam(r, "treeID")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateTree handles POST /trees/{treeID}/duplicate.
func (s *Server) DuplicateTree(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	tree, err := s.Trees.DuplicateTree(r.Context(), chi.URLParam(r, "treeID"), body.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tree)
}

// AddNode handles POST /trees/{treeID}/nodes.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var in trees.NodeInput
	if !s.decode(w, r, &in) {
		return
	}
	node, err := s.Trees.AddNode(r.Context(), chi.URLParam(r, "treeID"), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PUT /trees/{treeID}/nodes/{nodeID}.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var in trees.NodeInput
	if !s.decode(w, r, &in) {
		return
	}
	node, err := s.Trees.UpdateNode(r.Context(), chi.URLParam(r, "treeID"), chi.URLParam(r, "nodeID"), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /trees/{treeID}/nodes/{nodeID}.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Trees.DeleteNode(r.Context(), chi.URLParam(r, "treeID"), chi.URLParam(r, "nodeID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"deleted": removed})
}

// MoveNode handles POST /trees/{treeID}/nodes/{nodeID}/move.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var in trees.MoveInput
	if !s.decode(w, r, &in) {
		return
	}
	node, err := s.Trees.MoveNode(r.Context(), chi.URLParam(r, "treeID"), chi.URLParam(r, "nodeID"), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// ValidateTree handles GET /trees/{treeID}/validate.
func (s *Server) ValidateTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Trees.GetTree(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.Validate(tree.Nodes, s.Options...))
}

// EvaluateTree handles GET /trees/{treeID}/expected-value.
func (s *Server) EvaluateTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Trees.GetTree(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.evaluate(w, tree.Nodes)
}

// OptimalPath handles GET /trees/{treeID}/optimal-path.
func (s *Server) OptimalPath(w http.ResponseWriter, r *http.Request) {
	res, ok := s.evaluateStored(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"expected_value": res.ExpectedValue,
		"path":           analysis.OptimalPath(res),
		"steps":          analysis.Path(res),
	})
}

// SummarizeTree handles GET /trees/{treeID}/summary.
func (s *Server) SummarizeTree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.evaluateStored(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.Summarize(res))
}

func (s *Server) evaluateStored(w http.ResponseWriter, r *http.Request) (*analysis.Result, bool) {
	tree, err := s.Trees.GetTree(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	res, err := analysis.Evaluate(tree.Nodes, s.Options...)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return res, true
}
