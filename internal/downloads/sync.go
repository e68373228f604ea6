package downloads

import (
	"context"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// completionThreshold is the lowest state at which a download the backend
// silently forgets counts as finished rather than cancelled.
const completionThreshold = downloader.Sharing

// change is one staged outcome of a reconciliation.
type change struct {
	id       string
	from, to downloader.State
	kind     EventKind
}

// Sync reconciles local records with the backend's current dump.
func (m *Manager) Sync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sync(ctx)
}

// sync pulls one dump, decides every record against it and applies all
// decisions in a single transaction. Caller holds m.mu.
func (m *Manager) sync(ctx context.Context) error {
	items, err := m.backend.Dump(ctx)
	if err != nil {
		return err
	}

	observed := make(map[string]downloader.Item, len(items))
	for _, it := range items {
		id, err := m.ids.GetNative(it.ID)
		if err != nil {
			// Not ours.
			continue
		}
		observed[id] = it
	}

	var updates, deletes []change
	for _, p := range m.states.All() {
		id, local := p.Key, p.Value

		if it, ok := observed[id]; ok {
			switch {
			case it.State == downloader.Unknown:
				utils.Debug("downloads: backend reports unknown state for %s, keeping %s", id, local)
			case it.State != local:
				kind := EventState
				if it.State == downloader.Archived {
					kind = EventArchived
				}
				updates = append(updates, change{id: id, from: local, to: it.State, kind: kind})
			}
			continue
		}

		switch {
		case local == downloader.Archived:
		case local >= completionThreshold:
			updates = append(updates, change{id: id, from: local, to: downloader.Archived, kind: EventCompleted})
		default:
			deletes = append(deletes, change{id: id, from: local, to: downloader.Unknown, kind: EventVanished})
		}
	}

	m.progress = make(map[string]float64, len(observed))
	for id, it := range observed {
		m.progress[id] = it.Progress
	}

	if len(updates) == 0 && len(deletes) == 0 {
		return nil
	}

	return m.db.Transaction(func() error {
		for _, c := range updates {
			if err := m.states.Set(c.id, c.to); err != nil {
				return err
			}
			foreignID, _ := m.ids.GetExternal(c.id)
			if err := m.record(c.id, c.kind, c.from, c.to, foreignID); err != nil {
				return err
			}
			if c.kind == EventCompleted {
				utils.Debug("downloads: %s left the backend after %s, archiving", c.id, c.from)
			}
		}
		for _, c := range deletes {
			foreignID, _ := m.ids.GetExternal(c.id)
			if err := m.forget(c.id); err != nil {
				return err
			}
			if err := m.record(c.id, c.kind, c.from, c.to, foreignID); err != nil {
				return err
			}
			utils.Debug("downloads: %s left the backend while %s, dropping", c.id, c.from)
		}
		return nil
	})
}
