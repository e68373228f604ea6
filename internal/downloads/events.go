package downloads

import "github.com/arroyo-downloader/arroyo/internal/downloader"

// EventKind names a lifecycle transition recorded in the history table.
type EventKind string

const (
	EventAdded     EventKind = "added"
	EventReadded   EventKind = "readded"
	EventCancelled EventKind = "cancelled"
	EventArchived  EventKind = "archived"
	// EventCompleted: the backend forgot a download that had reached Sharing.
	EventCompleted EventKind = "completed"
	// EventVanished: the backend forgot a download before it reached Sharing.
	EventVanished EventKind = "vanished"
	EventState    EventKind = "state"
)

// Event is one entry of a download's history.
type Event struct {
	SourceID  string           `json:"source_id"`
	Kind      EventKind        `json:"kind"`
	From      downloader.State `json:"from"`
	To        downloader.State `json:"to"`
	ForeignID string           `json:"foreign_id,omitempty"`
	At        int64            `json:"at"`
}
