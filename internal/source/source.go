package source

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Source is a concrete, content-addressed item available for download.
type Source struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	URI      string  `json:"uri"`
	Provider string  `json:"provider"`
	Size     int64   `json:"size,omitempty"`
	Seeds    int     `json:"seeds,omitempty"`
	Leechers int     `json:"leechers,omitempty"`
	Created  int64   `json:"created,omitempty"`
	Entity   *Entity `json:"entity,omitempty"`
}

// FromURI builds a Source from a magnet or torrent URI. An empty name falls
// back to the magnet display name, then to the last URL path segment.
func FromURI(uri, name, provider string) (Source, error) {
	_, id, err := CanonicalID(uri)
	if err != nil {
		return Source{}, err
	}

	uri = Normalize(uri)
	if name == "" {
		name = magnetDisplayName(uri)
	}
	if name == "" && !IsMagnet(uri) {
		name = path.Base(strings.SplitN(uri, "?", 2)[0])
	}
	if name == "" {
		name = ShortID(id)
	}

	return Source{
		ID:       id,
		Name:     name,
		URI:      uri,
		Provider: provider,
		Created:  time.Now().Unix(),
	}, nil
}

// Validate checks the fields the download manager relies on.
func (s Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source %q has no id", s.Name)
	}
	if s.URI == "" {
		return fmt.Errorf("source %s has no uri", s.ID)
	}
	if s.Entity != nil {
		if err := s.Entity.Validate(); err != nil {
			return fmt.Errorf("source %s: %w", s.ID, err)
		}
	}
	return nil
}

// ShortID returns the first 8 hash characters of a source id.
func (s Source) ShortID() string { return ShortID(s.ID) }

func (s Source) String() string { return s.Name }

// ShortID trims the scheme prefix of id and truncates it to 8 characters.
func ShortID(id string) string {
	h := strings.TrimPrefix(strings.TrimPrefix(id, PrefixBTIH), PrefixSHA1)
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
