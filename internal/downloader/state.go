package downloader

import (
	"fmt"
	"strings"

	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// State is the lifecycle state of a download. The order is significant:
// anything below Archived is still managed by a backend, and anything at or
// above Sharing has acquired its payload.
type State int

const (
	Unknown State = iota
	Initializing
	Queued
	Paused
	Downloading
	Sharing
	Done
	Archived
)

var stateNames = [...]string{
	Unknown:      "unknown",
	Initializing: "initializing",
	Queued:       "queued",
	Paused:       "paused",
	Downloading:  "downloading",
	Sharing:      "sharing",
	Done:         "done",
	Archived:     "archived",
}

func (s State) String() string {
	if s < Unknown || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// IsActive reports whether a backend is still expected to manage the download.
func (s State) IsActive() bool { return s < Archived }

// IsComplete reports whether the payload has been acquired.
func (s State) IsComplete() bool { return s >= Sharing }

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool { return s >= Unknown && s <= Archived }

// ParseState parses a state name as produced by State.String.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown state %q", name)
}

// StatusMap translates backend-specific statuses into States.
type StatusMap[K comparable] struct {
	Backend string
	States  map[K]State
}

// Lookup returns the State for status. Unmapped statuses are logged and
// reported as Unknown.
func (m StatusMap[K]) Lookup(status K) State {
	st, ok := m.States[status]
	if !ok {
		utils.Debug("%s: unmapped backend status %v", m.Backend, status)
		return Unknown
	}
	return st
}
