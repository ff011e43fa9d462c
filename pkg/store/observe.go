package store

import (
	"context"
	"time"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/observability"
)

// Observe wraps s so loads and saves are reported to the registered
// [observability.StoreHooks] under the given backend name.
func Observe(s Store, backend string) Store {
	return &observed{Store: s, backend: backend}
}

type observed struct {
	Store
	backend string
}

func (o *observed) Get(ctx context.Context, id string) (family.Tree, error) {
	start := time.Now()
	t, err := o.Store.Get(ctx, id)
	observability.Store().OnLoad(ctx, o.backend, id, time.Since(start), err)
	return t, err
}

func (o *observed) Create(ctx context.Context, name string) (family.Tree, error) {
	start := time.Now()
	t, err := o.Store.Create(ctx, name)
	observability.Store().OnSave(ctx, o.backend, t.ID, time.Since(start), err)
	return t, err
}

func (o *observed) Save(ctx context.Context, t family.Tree) (family.Tree, error) {
	start := time.Now()
	saved, err := o.Store.Save(ctx, t)
	id := saved.ID
	if id == "" {
		id = t.ID
	}
	observability.Store().OnSave(ctx, o.backend, id, time.Since(start), err)
	return saved, err
}
