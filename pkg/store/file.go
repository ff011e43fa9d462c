package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

// DefaultFileName is the file [NewFileStore] uses inside its directory.
const DefaultFileName = "trees.json"

// FileStore keeps every tree in a single JSON document. The document is
// the list the editor saves, so files move freely between the two.
type FileStore struct {
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// NewFileStore opens the store at path. If path is empty it defaults to
// ~/.config/stemma/trees.json. The file is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "stemma", DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trees, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(trees))
	for i, t := range trees {
		out[i] = Summarize(t)
	}
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (family.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trees, err := s.load()
	if err != nil {
		return family.Tree{}, err
	}
	if i := indexOf(trees, id); i >= 0 {
		return trees[i], nil
	}
	return family.Tree{}, NotFound(id)
}

func (s *FileStore) Create(ctx context.Context, name string) (family.Tree, error) {
	t, err := family.NewTree(name, family.DefaultRoot)
	if err != nil {
		return family.Tree{}, err
	}
	return s.Save(ctx, t)
}

func (s *FileStore) Save(ctx context.Context, t family.Tree) (family.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trees, err := s.load()
	if err != nil {
		return family.Tree{}, err
	}
	if i := indexOf(trees, t.ID); i >= 0 && t.CreatedAt.IsZero() {
		t.CreatedAt = trees[i].CreatedAt
	}
	t, err = Prepare(t, s.now())
	if err != nil {
		return family.Tree{}, err
	}
	if i := indexOf(trees, t.ID); i >= 0 {
		trees[i] = t
	} else {
		trees = append(trees, t)
	}
	if err := s.write(trees); err != nil {
		return family.Tree{}, err
	}
	return t, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trees, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(trees, id)
	if i < 0 {
		return NotFound(id)
	}
	return s.write(slices.Delete(trees, i, i+1))
}

func (s *FileStore) Close() error { return nil }

// load reads the document. A missing file is an empty store.
func (s *FileStore) load() ([]family.Tree, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read store file")
	}
	if len(data) == 0 {
		return nil, nil
	}
	trees, err := family.ParseTrees(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "parse %s", s.path)
	}
	return trees, nil
}

// write replaces the document through a temp file so readers never see a
// partial write.
func (s *FileStore) write(trees []family.Tree) error {
	if trees == nil {
		trees = []family.Tree{}
	}
	data, err := json.MarshalIndent(trees, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trees: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".trees-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStorage, err, "write store file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write store file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "replace store file")
	}
	return nil
}

func indexOf(trees []family.Tree, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(trees, func(t family.Tree) bool { return t.ID == id })
}

var _ Store = (*FileStore)(nil)
