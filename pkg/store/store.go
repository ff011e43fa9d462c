// Package store persists named family trees.
//
// A [Store] holds any number of trees keyed by id. Backends:
//
//   - [FileStore]: every tree in one JSON file, in the editor's saved-data
//     format (a list of {id, name, nodes, edges} objects)
//   - sqlite: one row per tree, through gorm with goose migrations
//   - mongo: one document per tree in a MongoDB collection
//
// [Autosaver] periodically writes the tree being edited back to a store.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
)

// Store is the interface for tree storage backends.
type Store interface {
	// List summarizes every tree, oldest first.
	List(ctx context.Context) ([]Summary, error)

	// Get returns the tree with the given id, or an error with code
	// [errors.ErrCodeTreeNotFound].
	Get(ctx context.Context, id string) (family.Tree, error)

	// Create stores a new tree holding only a default root member.
	Create(ctx context.Context, name string) (family.Tree, error)

	// Save inserts or replaces a tree. Trees without an id get one.
	Save(ctx context.Context, t family.Tree) (family.Tree, error)

	// Delete removes a tree, or fails with [errors.ErrCodeTreeNotFound].
	Delete(ctx context.Context, id string) error

	Close() error
}

// Summary describes a stored tree without its graph.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Households int       `json:"households"`
	Members    int       `json:"members"`
	Edges      int       `json:"edges"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// Summarize returns the summary of t.
func Summarize(t family.Tree) Summary {
	return Summary{
		ID:         t.ID,
		Name:       t.Name,
		Households: len(t.Nodes),
		Members:    t.MemberCount(),
		Edges:      len(t.Edges),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// Prepare readies a tree for writing: it checks the name and id, assigns
// an id when missing and stamps the timestamps. Backends call it from
// Save.
func Prepare(t family.Tree, now time.Time) (family.Tree, error) {
	if err := errors.ValidateTreeName(t.Name); err != nil {
		return family.Tree{}, err
	}
	out := t.Clone()
	out.Name = strings.TrimSpace(out.Name)
	if out.ID == "" {
		out.ID = uuid.NewString()
	} else if err := errors.ValidateID("tree", out.ID); err != nil {
		return family.Tree{}, err
	}
	if out.Nodes == nil {
		out.Nodes = []family.Household{}
	}
	if out.Edges == nil {
		out.Edges = []family.Edge{}
	}
	now = now.UTC()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out, nil
}

// NotFound returns the error backends report for a missing tree.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
}

// FindByName returns the first tree whose name matches name, ignoring case.
func FindByName(ctx context.Context, s Store, name string) (family.Tree, error) {
	list, err := s.List(ctx)
	if err != nil {
		return family.Tree{}, err
	}
	for _, sum := range list {
		if strings.EqualFold(sum.Name, strings.TrimSpace(name)) {
			return s.Get(ctx, sum.ID)
		}
	}
	return family.Tree{}, errors.New(errors.ErrCodeTreeNotFound, "no tree named %q", name)
}

// Resolve finds a tree by id, falling back to its name.
func Resolve(ctx context.Context, s Store, ref string) (family.Tree, error) {
	t, err := s.Get(ctx, ref)
	if err == nil || !errors.Is(err, errors.ErrCodeTreeNotFound) {
		return t, err
	}
	return FindByName(ctx, s, ref)
}
