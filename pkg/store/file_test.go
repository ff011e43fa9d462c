package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
	"github.com/matzehuels/stemma/pkg/store/storetest"
)

func openFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "nested", "trees.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openFileStore(t) })
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := openFileStore(t)
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %v, want empty", list)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("List created the file: %v", err)
	}
}

func TestFileStoreWritesEditorFormat(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t)
	tr, err := s.Create(ctx, "Smith")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name": "Smith"`, `"label": "Root Member"`, `"nodes": [`, `"edges": []`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("store file missing %s:\n%s", want, data)
		}
	}
	trees, err := family.ParseTrees(data)
	if err != nil {
		t.Fatalf("ParseTrees: %v", err)
	}
	if len(trees) != 1 || trees[0].ID != tr.ID {
		t.Errorf("ParseTrees = %+v", trees)
	}
}

func TestFileStoreReadsEditorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.json")
	doc := `[{"id":"f1","name":"Legacy","nodes":[{"id":"1","type":"custom","position":{"x":0,"y":0},"data":{"label":"Root Member","gender":"male"}}],"edges":[]}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := s.Get(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Name != "Legacy" || tr.Nodes[0].Primary.Name != "Root Member" {
		t.Errorf("Get = %+v", tr)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(context.Background()); !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("List error = %v, want STORAGE_ERROR", err)
	}
}

func TestFileStoreKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := openFileStore(t)
	tr, err := s.Create(ctx, "Smith")
	if err != nil {
		t.Fatal(err)
	}
	edited, err := family.Rename(tr, "Smythe")
	if err != nil {
		t.Fatal(err)
	}
	saved, err := s.Save(ctx, family.Tree{ID: tr.ID, Name: edited.Name, Nodes: edited.Nodes})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.CreatedAt.Equal(tr.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", saved.CreatedAt, tr.CreatedAt)
	}
	if saved.Name != "Smythe" {
		t.Errorf("Name = %q", saved.Name)
	}
}
