// Package downloads keeps the local record of every download in step with a
// downloader backend.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/store"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// Table names in the persisted document.
const (
	TableStates  = "states"
	TableIDs     = "external_ids"
	TableLinks   = "links"
	TableSources = "sources"
	TableHistory = "history"
)

var (
	// ErrNotFound is returned for sources the manager does not track.
	ErrNotFound = store.ErrNotFound
	// ErrAmbiguous is returned by Lookup when a prefix matches several sources.
	ErrAmbiguous = store.ErrMultipleResults
	// ErrDuplicate is returned by Add when the backend reports a foreign id
	// that already belongs to another active source.
	ErrDuplicate = store.ErrIntegrity
)

// Download is the local view of one tracked source.
type Download struct {
	Source    source.Source    `json:"source"`
	State     downloader.State `json:"state"`
	ForeignID string           `json:"foreign_id"`
	// Progress is taken from the most recent backend dump and not persisted.
	Progress float64 `json:"progress"`
}

// Manager drives a downloader backend and persists what it knows about each
// download. Methods are safe for concurrent use but run one at a time.
type Manager struct {
	mu sync.Mutex

	db      *store.Database
	backend downloader.Downloader

	states  *store.KVTable[downloader.State]
	ids     *store.IDMapping
	links   *store.KVTable[*source.Entity]
	sources *store.KVTable[source.Source]
	history *store.DocumentTable[Event]

	progress map[string]float64
	now      func() time.Time
}

// New opens the manager's tables on db.
func New(db *store.Database, backend downloader.Downloader) (*Manager, error) {
	m := &Manager{
		db:       db,
		backend:  backend,
		progress: make(map[string]float64),
		now:      time.Now,
	}

	var err error
	if m.states, err = store.NewKVTable[downloader.State](db, TableStates); err != nil {
		return nil, err
	}
	if m.ids, err = store.NewIDMapping(db, TableIDs); err != nil {
		return nil, err
	}
	if m.links, err = store.NewKVTable[*source.Entity](db, TableLinks); err != nil {
		return nil, err
	}
	if m.sources, err = store.NewKVTable[source.Source](db, TableSources); err != nil {
		return nil, err
	}
	if m.history, err = store.NewDocumentTable[Event](db, TableHistory); err != nil {
		return nil, err
	}
	return m, nil
}

// Add submits src to the backend unless it is already being handled. An
// archived source is resubmitted and remapped to the new foreign id. If the
// backend fails nothing is recorded.
func (m *Manager) Add(ctx context.Context, src source.Source) error {
	if err := src.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.states.Get(src.ID)
	exists := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if exists && prev != downloader.Archived {
		utils.Debug("downloads: %s already %s, not resubmitting", src.ID, prev)
		return nil
	}

	foreignID, err := m.backend.Add(ctx, src.URI)
	if err != nil {
		return err
	}

	if owner, err := m.ids.GetNative(foreignID); err == nil && owner != src.ID {
		if st, err := m.states.Get(owner); err == nil && st != downloader.Archived {
			// The backend item belongs to owner; leave it alone.
			utils.Debug("downloads: %s resolves to %s, already tracked as %s", src.ID, foreignID, owner)
			return fmt.Errorf("%w: %s is the same download as %s", ErrDuplicate, src.ID, owner)
		}
	}

	kind := EventAdded
	if exists {
		kind = EventReadded
	}

	err = m.db.Transaction(func() error {
		if err := m.ids.Map(src.ID, foreignID); err != nil {
			return err
		}
		if err := m.states.Set(src.ID, downloader.Initializing); err != nil {
			return err
		}
		if err := m.sources.Set(src.ID, src); err != nil {
			return err
		}
		if err := m.links.Set(src.ID, src.Entity); err != nil {
			return err
		}
		return m.record(src.ID, kind, prev, downloader.Initializing, foreignID)
	})
	if err != nil {
		// Nothing was persisted; don't leave an orphan in the backend.
		if cerr := m.backend.Cancel(ctx, foreignID); cerr != nil {
			utils.Debug("downloads: failed to cancel orphan %s: %v", foreignID, cerr)
		}
		return fmt.Errorf("failed to record download %s: %w", src.ID, err)
	}

	delete(m.progress, src.ID)
	utils.Debug("downloads: %s %s as %s", kind, src.ID, foreignID)
	return nil
}

// Cancel removes src from the backend, along with its data, and forgets it.
func (m *Manager) Cancel(ctx context.Context, src source.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	foreignID, err := m.ids.GetExternal(src.ID)
	if err != nil {
		return err
	}
	if err := m.backend.Cancel(ctx, foreignID); err != nil {
		return err
	}

	prev, _ := m.states.Get(src.ID)
	err = m.db.Transaction(func() error {
		if err := m.forget(src.ID); err != nil {
			return err
		}
		return m.record(src.ID, EventCancelled, prev, downloader.Unknown, foreignID)
	})
	if err != nil {
		return err
	}
	utils.Debug("downloads: cancelled %s", src.ID)
	return nil
}

// Archive removes src from the backend keeping its data. The record is kept
// in state Archived.
func (m *Manager) Archive(ctx context.Context, src source.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	foreignID, err := m.ids.GetExternal(src.ID)
	if err != nil {
		return err
	}
	if err := m.backend.Archive(ctx, foreignID); err != nil {
		return err
	}

	prev, _ := m.states.Get(src.ID)
	err = m.db.Transaction(func() error {
		if err := m.states.Set(src.ID, downloader.Archived); err != nil {
			return err
		}
		return m.record(src.ID, EventArchived, prev, downloader.Archived, foreignID)
	})
	if err != nil {
		return err
	}
	delete(m.progress, src.ID)
	utils.Debug("downloads: archived %s", src.ID)
	return nil
}

// State syncs and returns the state of src.
func (m *Manager) State(ctx context.Context, src source.Source) (downloader.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sync(ctx); err != nil {
		return downloader.Unknown, err
	}
	return m.states.Get(src.ID)
}

// Active syncs and returns every download that is not archived.
func (m *Manager) Active(ctx context.Context) ([]Download, error) {
	return m.All(ctx, false)
}

// All syncs and returns every tracked download, sorted by source id.
// Archived downloads are included only if includeArchived is set.
func (m *Manager) All(ctx context.Context, includeArchived bool) ([]Download, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sync(ctx); err != nil {
		return nil, err
	}

	var out []Download
	for _, p := range m.states.All() {
		if !includeArchived && p.Value == downloader.Archived {
			continue
		}
		out = append(out, m.download(p.Key, p.Value))
	}
	return out, nil
}

// Sources returns the tracked sources without contacting the backend.
func (m *Manager) Sources() []source.Source {
	m.mu.Lock()
	defer m.mu.Unlock()

	pairs := m.sources.All()
	out := make([]source.Source, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Value)
	}
	return out
}

// Lookup resolves a full source id, or a unique prefix of one, to a tracked
// source. Prefixes may omit the urn:btih: or sha1: scheme.
func (m *Manager) Lookup(prefix string) (source.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return source.Source{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if src, err := m.sources.Get(prefix); err == nil {
		return src, nil
	}

	p, err := m.sources.FindOne(func(id string, _ source.Source) bool {
		bare := strings.TrimPrefix(strings.TrimPrefix(id, source.PrefixBTIH), source.PrefixSHA1)
		return strings.HasPrefix(id, prefix) || strings.HasPrefix(bare, prefix)
	})
	if errors.Is(err, store.ErrMultipleResults) {
		return source.Source{}, fmt.Errorf("ambiguous ID prefix %q: %w", prefix, ErrAmbiguous)
	}
	if err != nil {
		return source.Source{}, fmt.Errorf("no download matches %q: %w", prefix, ErrNotFound)
	}
	return p.Value, nil
}

// History returns the recorded lifecycle events of src, oldest first.
func (m *Manager) History(src source.Source) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.history.FindAll(func(e Event) bool { return e.SourceID == src.ID })
	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Doc)
	}
	return out
}

// SourcesForEntity returns the tracked sources linked to an entity equal to e.
func (m *Manager) SourcesForEntity(e *source.Entity) []source.Source {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []source.Source
	for _, p := range m.links.FindAll(func(_ string, linked *source.Entity) bool {
		return linked != nil && linked.Equal(e)
	}) {
		if src, err := m.sources.Get(p.Key); err == nil {
			out = append(out, src)
		}
	}
	return out
}

// download assembles the view of id. Caller holds m.mu.
func (m *Manager) download(id string, state downloader.State) Download {
	src, err := m.sources.Get(id)
	if err != nil {
		src = source.Source{ID: id, Name: id}
	}
	foreignID, _ := m.ids.GetExternal(id)
	progress := m.progress[id]
	if state >= downloader.Sharing {
		progress = 1
	}
	return Download{Source: src, State: state, ForeignID: foreignID, Progress: progress}
}

// forget drops every record of id. Caller holds m.mu.
func (m *Manager) forget(id string) error {
	if err := m.states.Drop(id); err != nil {
		return err
	}
	if err := m.ids.Unmap(id); err != nil {
		return err
	}
	if err := m.sources.Drop(id); err != nil {
		return err
	}
	if err := m.links.Drop(id); err != nil {
		return err
	}
	delete(m.progress, id)
	return nil
}

func (m *Manager) record(id string, kind EventKind, from, to downloader.State, foreignID string) error {
	_, err := m.history.Insert(Event{
		SourceID:  id,
		Kind:      kind,
		From:      from,
		To:        to,
		ForeignID: foreignID,
		At:        m.now().Unix(),
	})
	return err
}
