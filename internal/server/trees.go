package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stemma/pkg/buildinfo"
	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
	"github.com/matzehuels/stemma/pkg/pipeline"
)

// contentTypes maps export formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created tree", "id", t.ID, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handlePutTree replaces a stored tree's name and graph, the way the editor
// saves after manual changes.
func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	var in family.Tree
	if err := decode(r, w, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if in.ID != "" && in.ID != id {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "body id %q does not match %q", in.ID, id))
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.update(r.Context(), id, func(cur family.Tree) (family.Tree, error) {
		in.ID = cur.ID
		in.CreatedAt = cur.CreatedAt
		return in, nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRenameTree(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		return family.Rename(cur, req.Name)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	err := s.store.Delete(r.Context(), id)
	unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("deleted tree", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleLayoutTree runs auto-layout on a stored tree and saves the
// positions.
func (s *Server) handleLayoutTree(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.update(r.Context(), chi.URLParam(r, "id"), func(cur family.Tree) (family.Tree, error) {
		laidOut, _, err := s.runner.Layout(r.Context(), cur, opts)
		return laidOut, err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type layoutRequest struct {
	Nodes     []family.Household `json:"nodes"`
	Edges     []family.Edge      `json:"edges"`
	Direction string             `json:"direction,omitempty"`
	Drawer    string             `json:"drawer,omitempty"`
}

type layoutResponse struct {
	Nodes  []family.Household `json:"nodes"`
	Edges  []family.Edge      `json:"edges"`
	Bounds bounds             `json:"bounds"`
}

type bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handleLayout lays out a graph sent in the body without storing anything.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, w, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Direction != "" {
		opts.Direction = req.Direction
	}
	if req.Drawer != "" {
		opts.Drawer = req.Drawer
	}
	laidOut, _, err := s.runner.Layout(r.Context(), family.Tree{Nodes: req.Nodes, Edges: req.Edges}, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nodes, edges := laidOut.Nodes, laidOut.Edges
	if nodes == nil {
		nodes = []family.Household{}
	}
	if edges == nil {
		edges = []family.Edge{}
	}
	b := layout.Bounds(nodes)
	writeJSON(w, http.StatusOK, layoutResponse{
		Nodes:  nodes,
		Edges:  edges,
		Bounds: bounds{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height},
	})
}

// handleExport lays out and renders a stored tree. The stored positions
// are left untouched.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	t, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if r.URL.Query().Has("download") {
		w.Header().Set("Content-Disposition", `attachment; filename="`+fileName(t.Name)+"."+format+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// requestOptions applies query parameters over the server defaults.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.options()
	q := r.URL.Query()
	if v := q.Get("direction"); v != "" {
		opts.Direction = strings.ToUpper(v)
	}
	if v := q.Get("drawer"); v != "" {
		opts.Drawer = v
	}
	if v := q.Get("rasterizer"); v != "" {
		opts.Rasterizer = v
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"margin", &opts.Margin},
		{"scale", &opts.Scale},
		{"rank_sep", &opts.RankSep},
		{"node_sep", &opts.NodeSep},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", f.name, v)
		}
		*f.dst = n
	}
	opts.Transparent = opts.Transparent || q.Has("transparent")
	opts.Detailed = opts.Detailed || q.Has("detailed")
	opts.Refresh = q.Has("refresh")
	if q.Has("nophotos") {
		opts.Photos = nil
	}
	return opts, nil
}

// fileName turns a tree name into a safe download name.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if name == "" {
		return "family_tree"
	}
	return name
}
