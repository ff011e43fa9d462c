package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/observability"
	"github.com/matzehuels/stemma/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "trees.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	srv := httptest.NewServer(New(st, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeInto[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s = %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func expectError(t *testing.T, resp *http.Response, body []byte, status int, code errors.Code) {
	t.Helper()
	expectStatus(t, resp, body, status)
	got := decodeInto[apiError](t, body)
	if got.Code != code || got.Message == "" {
		t.Errorf("error body = %+v, want code %s", got, code)
	}
}

func createTree(t *testing.T, srv *httptest.Server, name string) family.Tree {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/trees", map[string]string{"name": name})
	expectStatus(t, resp, body, http.StatusCreated)
	return decodeInto[family.Tree](t, body)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/api/health", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[map[string]string](t, body); got["status"] != "ok" {
		t.Errorf("health = %v", got)
	}
}

func TestTreeCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	tr := createTree(t, srv, "  Smith  ")
	if tr.Name != "Smith" || len(tr.Nodes) != 1 || tr.Nodes[0].Primary.Name != family.DefaultRoot.Name {
		t.Fatalf("created tree = %+v", tr)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/trees", nil)
	expectStatus(t, resp, body, http.StatusOK)
	list := decodeInto[[]store.Summary](t, body)
	if len(list) != 1 || list[0].ID != tr.ID || list[0].Members != 1 {
		t.Errorf("list = %+v", list)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/trees/"+tr.ID, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[family.Tree](t, body); got.ID != tr.ID || got.Nodes[0].ID != tr.Nodes[0].ID {
		t.Errorf("get = %+v", got)
	}

	resp, body = do(t, srv, http.MethodPatch, "/api/trees/"+tr.ID, map[string]string{"name": "Jones"})
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[family.Tree](t, body); got.Name != "Jones" {
		t.Errorf("rename = %q", got.Name)
	}

	resp, body = do(t, srv, http.MethodDelete, "/api/trees/"+tr.ID, nil)
	expectStatus(t, resp, body, http.StatusNoContent)

	resp, body = do(t, srv, http.MethodGet, "/api/trees/"+tr.ID, nil)
	expectError(t, resp, body, http.StatusNotFound, errors.ErrCodeTreeNotFound)
	resp, body = do(t, srv, http.MethodDelete, "/api/trees/"+tr.ID, nil)
	expectError(t, resp, body, http.StatusNotFound, errors.ErrCodeTreeNotFound)
}

func TestCreateTreeErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"blank name", map[string]string{"name": "   "}, http.StatusBadRequest, errors.ErrCodeInvalidName},
		{"bad json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, "/api/trees", tt.body)
			expectError(t, resp, body, tt.status, tt.code)
		})
	}
}

func TestEditingOperations(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := createTree(t, srv, "Smith")
	base := "/api/trees/" + tr.ID
	root := tr.Nodes[0].ID

	resp, body := do(t, srv, http.MethodPost, base+"/nodes/"+root+"/spouses", map[string]string{"name": "Lena", "gender": "female"})
	expectStatus(t, resp, body, http.StatusCreated)

	resp, body = do(t, srv, http.MethodPost, base+"/nodes/"+root+"/children", map[string]any{
		"anchor": "spouse-0",
		"member": map[string]string{"label": "Ada", "gender": "female"},
	})
	expectStatus(t, resp, body, http.StatusCreated)
	added := decodeInto[addedResponse](t, body)
	child := added.NodeID
	if child == "" || len(added.Tree.Edges) != 1 || added.Tree.Edges[0].Anchor() != family.SpouseAnchor(0) {
		t.Fatalf("add child = %+v", added)
	}

	resp, body = do(t, srv, http.MethodPut, base+"/nodes/"+child+"/members/primary", map[string]string{"label": "Ada Lovelace"})
	expectStatus(t, resp, body, http.StatusOK)
	if h, _ := decodeInto[family.Tree](t, body).Node(child); h.Primary.Name != "Ada Lovelace" {
		t.Errorf("edited member = %+v", h.Primary)
	}

	// Deleting the spouse moves the child onto the primary line.
	resp, body = do(t, srv, http.MethodDelete, base+"/nodes/"+root+"/members/spouse-0", nil)
	expectStatus(t, resp, body, http.StatusOK)
	got := decodeInto[family.Tree](t, body)
	if h, _ := got.Node(root); len(h.Spouses) != 0 {
		t.Errorf("spouses after delete = %v", h.Spouses)
	}
	if got.Edges[0].Anchor() != family.AnchorPrimary {
		t.Errorf("edge anchor after delete = %q", got.Edges[0].Anchor())
	}

	resp, body = do(t, srv, http.MethodPost, base+"/members", map[string]string{"label": "Zed"})
	expectStatus(t, resp, body, http.StatusCreated)
	other := decodeInto[addedResponse](t, body).NodeID

	resp, body = do(t, srv, http.MethodPost, base+"/edges", map[string]string{"source": other, "target": root})
	expectStatus(t, resp, body, http.StatusCreated)
	edgeID := decodeInto[addedResponse](t, body).EdgeID

	resp, body = do(t, srv, http.MethodPost, base+"/edges", map[string]string{"source": child, "target": other})
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidGraph)

	resp, body = do(t, srv, http.MethodDelete, base+"/edges/"+edgeID, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[family.Tree](t, body); len(got.Edges) != 1 {
		t.Errorf("edges after remove = %d", len(got.Edges))
	}
	resp, body = do(t, srv, http.MethodDelete, base+"/edges/"+edgeID, nil)
	expectError(t, resp, body, http.StatusNotFound, errors.ErrCodeNotFound)

	// The stored tree reflects every edit.
	resp, body = do(t, srv, http.MethodGet, base, nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := decodeInto[family.Tree](t, body); len(got.Nodes) != 3 || got.MemberCount() != 3 {
		t.Errorf("stored tree has %d households, %d members", len(got.Nodes), got.MemberCount())
	}
}

func TestEditingErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := createTree(t, srv, "Smith")
	base := "/api/trees/" + tr.ID
	root := tr.Nodes[0].ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"unknown tree", http.MethodPost, "/api/trees/nope/members", map[string]string{"label": "A"}, http.StatusNotFound, errors.ErrCodeTreeNotFound},
		{"unknown node", http.MethodPost, base + "/nodes/nope/spouses", map[string]string{"name": "A"}, http.StatusNotFound, errors.ErrCodeNodeNotFound},
		{"unnamed child", http.MethodPost, base + "/nodes/" + root + "/children", map[string]any{"member": map[string]string{}}, http.StatusBadRequest, errors.ErrCodeInvalidMember},
		{"missing anchor", http.MethodPost, base + "/nodes/" + root + "/children", map[string]any{"anchor": "spouse-3", "member": map[string]string{"label": "A"}}, http.StatusBadRequest, errors.ErrCodeInvalidAnchor},
		{"bad member ref", http.MethodDelete, base + "/nodes/" + root + "/members/uncle", nil, http.StatusBadRequest, errors.ErrCodeInvalidAnchor},
		{"missing spouse", http.MethodDelete, base + "/nodes/" + root + "/members/spouse-0", nil, http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad gender", http.MethodPut, base + "/nodes/" + root + "/members/primary", map[string]string{"label": "A", "gender": "x"}, http.StatusBadRequest, errors.ErrCodeInvalidMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body)
			expectError(t, resp, body, tt.status, tt.code)
		})
	}
}

func TestPutTree(t *testing.T) {
	srv, st := newTestServer(t)
	tr := createTree(t, srv, "Smith")

	c := family.NewHousehold("kid", family.Member{Name: "Kid"})
	tr.Nodes = append(tr.Nodes, c)
	tr.Edges = append(tr.Edges, family.Edge{ID: "e1", Source: tr.Nodes[0].ID, Target: "kid"})
	tr.Name = "Smith family"

	resp, body := do(t, srv, http.MethodPut, "/api/trees/"+tr.ID, tr)
	expectStatus(t, resp, body, http.StatusOK)
	stored, err := st.Get(context.Background(), tr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Smith family" || len(stored.Nodes) != 2 || len(stored.Edges) != 1 {
		t.Errorf("stored = %+v", stored)
	}
	if !stored.CreatedAt.Equal(tr.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", stored.CreatedAt, tr.CreatedAt)
	}

	// A cycle is rejected and nothing is saved.
	tr.Edges = append(tr.Edges, family.Edge{ID: "e2", Source: "kid", Target: tr.Nodes[0].ID})
	resp, body = do(t, srv, http.MethodPut, "/api/trees/"+tr.ID, tr)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidGraph)

	tr.ID = "other"
	resp, body = do(t, srv, http.MethodPut, "/api/trees/"+stored.ID, tr)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestLayoutStoredTree(t *testing.T) {
	srv, st := newTestServer(t)
	tr := createTree(t, srv, "Smith")
	base := "/api/trees/" + tr.ID
	root := tr.Nodes[0].ID
	resp, body := do(t, srv, http.MethodPost, base+"/nodes/"+root+"/children", map[string]any{"member": map[string]string{"label": "Kid"}})
	expectStatus(t, resp, body, http.StatusCreated)
	child := decodeInto[addedResponse](t, body).NodeID

	for _, tt := range []struct {
		dir        string
		side       family.Side
		downstream func(parent, kid family.Point) bool
	}{
		{"TB", family.SideBottom, func(p, k family.Point) bool { return k.Y > p.Y }},
		{"lr", family.SideRight, func(p, k family.Point) bool { return k.X > p.X }},
	} {
		resp, body = do(t, srv, http.MethodPost, base+"/layout?direction="+tt.dir, nil)
		expectStatus(t, resp, body, http.StatusOK)

		stored, err := st.Get(context.Background(), tr.ID)
		if err != nil {
			t.Fatal(err)
		}
		p, _ := stored.Node(root)
		k, _ := stored.Node(child)
		if !tt.downstream(p.Position, k.Position) {
			t.Errorf("%s: parent %v, child %v", tt.dir, p.Position, k.Position)
		}
		if p.SourceSide != tt.side {
			t.Errorf("%s: source side = %q, want %q", tt.dir, p.SourceSide, tt.side)
		}
	}

	resp, body = do(t, srv, http.MethodPost, base+"/layout?direction=diagonal", nil)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidDirection)
	resp, body = do(t, srv, http.MethodPost, base+"/layout?margin=-1", nil)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidInput)
}

func TestStatelessLayout(t *testing.T) {
	srv, _ := newTestServer(t)
	req := `{
		"direction": "TB",
		"nodes": [
			{"id": "a", "data": {"label": "Omar", "spouses": [{"name": "Lena"}]}, "position": {"x": 0, "y": 0}},
			{"id": "b", "data": {"label": "Kid"}, "position": {"x": 0, "y": 0}}
		],
		"edges": [{"id": "e1", "source": "a", "target": "b", "sourceHandle": "spouse-0"}]
	}`
	resp, body := do(t, srv, http.MethodPost, "/api/layout", req)
	expectStatus(t, resp, body, http.StatusOK)

	var got struct {
		Nodes  []family.Household `json:"nodes"`
		Edges  []family.Edge      `json:"edges"`
		Bounds bounds             `json:"bounds"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 2 || got.Nodes[1].Position.Y <= got.Nodes[0].Position.Y {
		t.Errorf("nodes = %+v", got.Nodes)
	}
	// A unified couple card with one child card a generation below.
	if got.Bounds.Width < 400 || got.Bounds.Height != 340 {
		t.Errorf("bounds = %+v", got.Bounds)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/layout", `{"nodes":[{"id":"a"}],"edges":[{"id":"x","source":"a","target":"zz"}]}`)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidGraph)

	resp, body = do(t, srv, http.MethodPost, "/api/layout", `{"nodes":[],"edges":[]}`)
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), `"nodes":[]`) {
		t.Errorf("empty layout = %s", body)
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	tr := createTree(t, srv, "Smith Family")
	base := "/api/trees/" + tr.ID

	tests := []struct {
		format string
		ctype  string
		want   string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"json", "application/json", `"label": "Root Member"`},
		{"dot", "text/vnd.graphviz; charset=utf-8", "digraph G"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodGet, base+"/export."+tt.format+"?download", nil)
			expectStatus(t, resp, body, http.StatusOK)
			if got := resp.Header.Get("Content-Type"); got != tt.ctype {
				t.Errorf("Content-Type = %q, want %q", got, tt.ctype)
			}
			if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "Smith_Family."+tt.format) {
				t.Errorf("Content-Disposition = %q", got)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body missing %q: %.200s", tt.want, body)
			}
		})
	}

	resp, body := do(t, srv, http.MethodGet, base+"/export.gif", nil)
	expectError(t, resp, body, http.StatusBadRequest, errors.ErrCodeInvalidFormat)
	resp, body = do(t, srv, http.MethodGet, "/api/trees/nope/export.svg", nil)
	expectError(t, resp, body, http.StatusNotFound, errors.ErrCodeTreeNotFound)
}

func TestConcurrentEditsAreSerialized(t *testing.T) {
	srv, st := newTestServer(t)
	tr := createTree(t, srv, "Smith")
	root := tr.Nodes[0].ID

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, body := do(t, srv, http.MethodPost, "/api/trees/"+tr.ID+"/nodes/"+root+"/children",
				map[string]any{"member": map[string]string{"label": "Kid"}})
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("add child = %d: %s", resp.StatusCode, body)
			}
		}()
	}
	wg.Wait()

	got, err := st.Get(context.Background(), tr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != n+1 || len(got.Edges) != n {
		t.Errorf("after %d concurrent adds: %d households, %d edges", n, len(got.Nodes), len(got.Edges))
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestRequestHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/api/trees/nope", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 1 || !strings.HasPrefix(hooks.routes[0], "GET /api/trees/{id}") || !strings.HasSuffix(hooks.routes[0], " Not Found") {
		t.Errorf("routes = %v", hooks.routes)
	}
}

func TestTreeLocksArePruned(t *testing.T) {
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "trees.json"))
	if err != nil {
		t.Fatal(err)
	}
	s := New(st, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	tr := createTree(t, srv, "Kim")
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			do(t, srv, http.MethodPatch, "/api/trees/"+tr.ID, map[string]string{"name": "Kim Family"})
		}()
	}
	wg.Wait()
	resp, body := do(t, srv, http.MethodDelete, "/api/trees/"+tr.ID, nil)
	expectStatus(t, resp, body, http.StatusNoContent)
	do(t, srv, http.MethodPatch, "/api/trees/missing", map[string]string{"name": "Nobody"})

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.locks) != 0 {
		t.Errorf("%d tree locks left after all requests finished", len(s.locks))
	}
}

func TestTreeLockWaiterKeepsEntry(t *testing.T) {
	s := New(nil, nil)
	release := s.lock("t1")

	acquired := make(chan func())
	go func() { acquired <- s.lock("t1") }()

	// Wait for the second caller to register before releasing.
	for {
		s.mu.Lock()
		refs := s.locks["t1"].refs
		s.mu.Unlock()
		if refs == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	release()

	second := <-acquired
	s.mu.Lock()
	_, held := s.locks["t1"]
	s.mu.Unlock()
	if !held {
		t.Fatal("lock entry dropped while a request still holds it")
	}
	second()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks["t1"]; ok {
		t.Error("lock entry kept after the last holder released it")
	}
}

func TestListenAndServe(t *testing.T) {
	s := New(nil, nil)

	t.Run("cancel shuts down cleanly", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
		time.Sleep(50 * time.Millisecond)
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("ListenAndServe after cancel = %v, want nil", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("ListenAndServe did not return after cancel")
		}
	})

	t.Run("busy address is reported", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		defer ln.Close()
		if err := s.ListenAndServe(context.Background(), ln.Addr().String()); err == nil {
			t.Error("ListenAndServe on a busy address returned nil")
		}
	})
}
