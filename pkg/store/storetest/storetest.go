// Package storetest checks that a store.Store implementation behaves like
// the others.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("CreateGetList", func(t *testing.T) {
		s := open(t)
		a, err := s.Create(ctx, "  Smith family ")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if a.ID == "" || a.Name != "Smith family" {
			t.Fatalf("Create returned %+v", a)
		}
		if len(a.Nodes) != 1 || a.Nodes[0].Primary != family.DefaultRoot {
			t.Fatalf("Create nodes = %+v, want default root", a.Nodes)
		}
		// Backends with millisecond timestamps need distinct creation times.
		time.Sleep(2 * time.Millisecond)
		b, err := s.Create(ctx, "Jones")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != a.Name || len(got.Nodes) != 1 || got.Nodes[0].ID != a.Nodes[0].ID {
			t.Errorf("Get = %+v, want %+v", got, a)
		}

		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
			t.Fatalf("List = %+v, want [%s %s]", list, a.ID, b.ID)
		}
		if list[0].Households != 1 || list[0].Members != 1 || list[0].Edges != 0 {
			t.Errorf("summary counts = %+v", list[0])
		}
	})

	t.Run("CreateRequiresName", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"", "   "} {
			if _, err := s.Create(ctx, name); !errors.Is(err, errors.ErrCodeInvalidName) {
				t.Errorf("Create(%q) error = %v, want INVALID_NAME", name, err)
			}
		}
		list, _ := s.List(ctx)
		if len(list) != 0 {
			t.Errorf("store holds %d trees after failed creates", len(list))
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := open(t)
		tr, err := s.Create(ctx, "Smith")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		root := tr.Nodes[0].ID
		tr, err = family.AddSpouse(tr, root, family.Member{Name: "Ana", Gender: family.Female})
		if err != nil {
			t.Fatal(err)
		}
		tr, _, err = family.AddChild(tr, root, family.SpouseAnchor(0), family.Member{Name: "Kid"})
		if err != nil {
			t.Fatal(err)
		}
		created := tr.CreatedAt

		saved, err := s.Save(ctx, tr)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if saved.UpdatedAt.Before(created) {
			t.Errorf("UpdatedAt %v before CreatedAt %v", saved.UpdatedAt, created)
		}

		got, err := s.Get(ctx, tr.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got.Nodes) != 2 || len(got.Edges) != 1 {
			t.Fatalf("Get = %d nodes %d edges, want 2 and 1", len(got.Nodes), len(got.Edges))
		}
		if got.Edges[0].SourceAnchor != family.SpouseAnchor(0) {
			t.Errorf("edge anchor = %q", got.Edges[0].SourceAnchor)
		}
		if len(got.Nodes[0].Spouses) != 1 || got.Nodes[0].Spouses[0].Name != "Ana" {
			t.Errorf("spouses = %+v", got.Nodes[0].Spouses)
		}

		list, _ := s.List(ctx)
		if len(list) != 1 {
			t.Fatalf("List = %d trees after save, want 1", len(list))
		}
		if list[0].Members != 3 || list[0].Edges != 1 {
			t.Errorf("summary = %+v", list[0])
		}
	})

	t.Run("SaveAssignsID", func(t *testing.T) {
		s := open(t)
		saved, err := s.Save(ctx, family.Tree{Name: "Imported"})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if saved.ID == "" || saved.CreatedAt.IsZero() {
			t.Errorf("Save = %+v, want id and timestamps", saved)
		}
		if _, err := s.Get(ctx, saved.ID); err != nil {
			t.Errorf("Get: %v", err)
		}
	})

	t.Run("SaveRejectsBadName", func(t *testing.T) {
		s := open(t)
		if _, err := s.Save(ctx, family.Tree{ID: "x", Name: ""}); !errors.Is(err, errors.ErrCodeInvalidName) {
			t.Errorf("Save error = %v, want INVALID_NAME", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		tr, err := s.Create(ctx, "Gone")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Delete(ctx, tr.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, tr.ID); !errors.Is(err, errors.ErrCodeTreeNotFound) {
			t.Errorf("Get after delete error = %v", err)
		}
		if err := s.Delete(ctx, tr.ID); !errors.Is(err, errors.ErrCodeTreeNotFound) {
			t.Errorf("second Delete error = %v", err)
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		s := open(t)
		tr, err := s.Create(ctx, "Nakamura")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		for _, ref := range []string{tr.ID, "nakamura", " Nakamura "} {
			got, err := store.Resolve(ctx, s, ref)
			if err != nil || got.ID != tr.ID {
				t.Errorf("Resolve(%q) = %s, %v", ref, got.ID, err)
			}
		}
		if _, err := store.Resolve(ctx, s, "nobody"); !errors.Is(err, errors.ErrCodeTreeNotFound) {
			t.Errorf("Resolve(nobody) error = %v", err)
		}
	})
}
