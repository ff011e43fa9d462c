package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/stemma/pkg/observability"
	"github.com/matzehuels/stemma/pkg/store"
)

type recordingHooks struct {
	observability.NoopStoreHooks
	mu     sync.Mutex
	events []string
}

func (r *recordingHooks) OnLoad(_ context.Context, backend, id string, _ time.Duration, err error) {
	r.record("load", backend, err)
}

func (r *recordingHooks) OnSave(_ context.Context, backend, id string, _ time.Duration, err error) {
	r.record("save", backend, err)
}

func (r *recordingHooks) record(op, backend string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		op += "!"
	}
	r.events = append(r.events, backend+":"+op)
}

func TestObserve(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetStoreHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := store.Observe(openFileStore(t), "file")
	tr, err := s.Create(ctx, "Smith")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, tr.ID); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Get(ctx, "missing")
	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{"file:save", "file:load", "file:load!"}
	if len(hooks.events) != len(want) {
		t.Fatalf("events = %v, want %v", hooks.events, want)
	}
	for i := range want {
		if hooks.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, hooks.events[i], want[i])
		}
	}
}
