package entity

import (
	"maps"
	"sync"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// Snapshot is a consistent copy of a record's state.
type Snapshot struct {
	ID  ref.ID
	Raw map[string]any

	// Ready is set once the primary fetch has finished, successfully or not.
	Ready bool
	// Pending counts supplementary fetches still running.
	Pending int
	// Complete is set when no further updates will happen.
	Complete     bool
	RenderedOnce bool
	// Renders is the number of renders that happened before the snapshot.
	Renders int
	Err     error
}

// Record is the cached, progressively populated state of one entity.
type Record struct {
	ID ref.ID

	latch *Latch
	done  chan struct{}

	mu           sync.Mutex
	raw          map[string]any
	ready        bool
	complete     bool
	renderedOnce bool
	renders      int
	err          error
	subs         map[int]func(Snapshot)
	nextSub      int
}

func newRecord(id ref.ID) *Record {
	r := &Record{
		ID:   id,
		done: make(chan struct{}),
		raw:  make(map[string]any),
		subs: make(map[int]func(Snapshot)),
	}
	r.latch = NewLatch(r.render)
	return r
}

// Snapshot returns the record's current state.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Record) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           r.ID,
		Raw:          maps.Clone(r.raw),
		Ready:        r.ready,
		Pending:      r.latch.Pending(),
		Complete:     r.complete,
		RenderedOnce: r.renderedOnce,
		Renders:      r.renders,
		Err:          r.err,
	}
}

// Subscribe registers fn to receive a snapshot on every render. The returned
// function removes the subscription.
func (r *Record) Subscribe(fn func(Snapshot)) (cancel func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Done is closed once the primary and all supplementary fetches finished.
func (r *Record) Done() <-chan struct{} { return r.done }

// Renders returns how many times the record has been rendered.
func (r *Record) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Get returns a raw field.
func (r *Record) Get(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.raw[key]
	return v, ok
}

// Set stores a raw field.
func (r *Record) Set(key string, v any) {
	r.mu.Lock()
	r.raw[key] = v
	r.mu.Unlock()
}

// Merge copies fields into the record, overwriting existing keys.
func (r *Record) Merge(fields map[string]any) {
	r.mu.Lock()
	maps.Copy(r.raw, fields)
	r.mu.Unlock()
}

// update applies fn to the raw fields under the record lock.
func (r *Record) update(fn func(raw map[string]any)) {
	r.mu.Lock()
	fn(r.raw)
	r.mu.Unlock()
}

func (r *Record) setReady(err error) {
	r.mu.Lock()
	r.ready = true
	r.err = err
	r.mu.Unlock()
}

func (r *Record) finish() {
	r.mu.Lock()
	r.complete = true
	r.mu.Unlock()
	close(r.done)
}

// render notifies subscribers with the current state.
func (r *Record) render() {
	r.mu.Lock()
	r.renderedOnce = true
	r.renders++
	snap := r.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
