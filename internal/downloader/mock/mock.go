// Package mock provides an in-memory download backend for tests and dry runs.
package mock

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

const Name = "mock"

func init() {
	downloader.Register(Name, func(*config.Settings) (downloader.Downloader, error) {
		return New(), nil
	})
}

type entry struct {
	uri      string
	state    downloader.State
	progress float64
	seq      int
}

// Backend keeps submitted downloads in memory. Items stay Initializing until
// SetState moves them along.
type Backend struct {
	mu       sync.Mutex
	items    map[string]*entry
	seq      int
	failNext error

	// Call counters, for assertions.
	Adds, Cancels, Archives, Dumps int
}

func New() *Backend {
	return &Backend{items: make(map[string]*entry)}
}

func (b *Backend) Add(_ context.Context, uri string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Adds++

	if err := b.failNext; err != nil {
		b.failNext = nil
		return "", downloader.Wrap(Name, "add", err)
	}

	id := "mock:" + uuid.NewString()
	b.seq++
	b.items[id] = &entry{uri: uri, state: downloader.Initializing, seq: b.seq}
	return id, nil
}

func (b *Backend) Cancel(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Cancels++
	delete(b.items, id)
	return nil
}

func (b *Backend) Archive(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Archives++
	delete(b.items, id)
	return nil
}

func (b *Backend) Dump(context.Context) ([]downloader.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Dumps++

	ids := make([]string, 0, len(b.items))
	for id := range b.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return b.items[ids[i]].seq < b.items[ids[j]].seq })

	out := make([]downloader.Item, 0, len(ids))
	for _, id := range ids {
		e := b.items[id]
		out = append(out, downloader.Item{ID: id, State: e.state, Progress: e.progress})
	}
	return out, nil
}

// SetState changes what Dump reports for id. It also creates items the
// manager never submitted.
func (b *Backend) SetState(id string, state downloader.State, progress float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.items[id]
	if !ok {
		b.seq++
		e = &entry{seq: b.seq}
		b.items[id] = e
	}
	e.state = state
	e.progress = progress
}

// Forget drops id as if it was removed outside of arroyo.
func (b *Backend) Forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, id)
}

// FailNextAdd makes the next Add fail with err.
func (b *Backend) FailNextAdd(err error) {
	if err == nil {
		err = errors.New("simulated failure")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// URI returns the uri submitted for id.
func (b *Backend) URI(id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.items[id]
	if !ok {
		return "", false
	}
	return e.uri, true
}

var _ downloader.Downloader = (*Backend)(nil)
