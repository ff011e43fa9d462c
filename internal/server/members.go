package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

// addedResponse is returned by operations that create a household or edge.
type addedResponse struct {
	Tree   family.Tree `json:"tree"`
	NodeID string      `json:"nodeId,omitempty"`
	EdgeID string      `json:"edgeId,omitempty"`
}

func (s *Server) handleAddRoot(w http.ResponseWriter, r *http.Request) {
	var m family.Member
	if err := decode(r, w, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	var nodeID string
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		next, id, err := family.AddRoot(cur, m)
		nodeID = id
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addedResponse{Tree: t, NodeID: nodeID})
}

func (s *Server) handleAddSpouse(w http.ResponseWriter, r *http.Request) {
	var m family.Member
	if err := decode(r, w, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	node := chi.URLParam(r, "node")
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		return family.AddSpouse(cur, node, m)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addedResponse{Tree: t, NodeID: node})
}

type childRequest struct {
	Anchor family.Anchor `json:"anchor,omitempty"`
	Member family.Member `json:"member"`
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	parent := chi.URLParam(r, "node")
	var nodeID string
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		next, id, err := family.AddChild(cur, parent, req.Anchor, req.Member)
		nodeID = id
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addedResponse{Tree: t, NodeID: nodeID})
}

func (s *Server) handleEditMember(w http.ResponseWriter, r *http.Request) {
	ref, err := family.ParseMemberRef(chi.URLParam(r, "ref"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var m family.Member
	if err := decode(r, w, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	node := chi.URLParam(r, "node")
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		return family.EditMember(cur, node, ref, m)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	ref, err := family.ParseMemberRef(chi.URLParam(r, "ref"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	node := chi.URLParam(r, "node")
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		return family.DeleteMember(cur, node, ref)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type connectRequest struct {
	Source string        `json:"source"`
	Target string        `json:"target"`
	Anchor family.Anchor `json:"anchor,omitempty"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var edgeID string
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		next, id, err := family.Connect(cur, req.Source, req.Target, req.Anchor)
		edgeID = id
		return next, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addedResponse{Tree: t, EdgeID: edgeID})
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	edge := chi.URLParam(r, "edge")
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		if !slices.ContainsFunc(cur.Edges, func(e family.Edge) bool { return e.ID == edge }) {
			return cur, errors.New(errors.ErrCodeNotFound, "edge %q not found", edge)
		}
		return family.RemoveEdge(cur, edge), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
