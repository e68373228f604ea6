package source

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

type EntityType string

const (
	EntityEpisode EntityType = "episode"
	EntityMovie   EntityType = "movie"
)

// Entity is the logical item a Source is an instance of.
type Entity struct {
	Type    EntityType `json:"type"`
	Series  string     `json:"series,omitempty"`
	Title   string     `json:"title,omitempty"`
	Year    int        `json:"year,omitempty"`
	Season  int        `json:"season,omitempty"`
	Number  int        `json:"number,omitempty"`
	Country string     `json:"country,omitempty"`
}

func NewEpisode(series string, year, season, number int, country string) *Entity {
	return &Entity{
		Type:    EntityEpisode,
		Series:  series,
		Year:    year,
		Season:  season,
		Number:  number,
		Country: country,
	}
}

func NewMovie(title string, year int) *Entity {
	return &Entity{Type: EntityMovie, Title: title, Year: year}
}

func (e *Entity) Validate() error {
	switch e.Type {
	case EntityEpisode:
		if e.Series == "" {
			return fmt.Errorf("episode without series")
		}
	case EntityMovie:
		if e.Title == "" {
			return fmt.Errorf("movie without title")
		}
	default:
		return fmt.Errorf("unknown entity type %q", e.Type)
	}
	return nil
}

// Normalized returns a copy with names lowercased and whitespace collapsed.
func (e *Entity) Normalized() *Entity {
	n := *e
	n.Series = normalizeName(e.Series)
	n.Title = normalizeName(e.Title)
	n.Country = strings.ToLower(strings.TrimSpace(e.Country))
	return &n
}

// ID is a sha1 over the identifying fields of the normalized entity. Equal
// entities share an ID.
func (e *Entity) ID() string {
	n := e.Normalized()
	var fields []string
	switch n.Type {
	case EntityEpisode:
		fields = []string{string(n.Type), n.Series, optInt(n.Year),
			strconv.Itoa(n.Season), strconv.Itoa(n.Number), n.Country}
	default:
		fields = []string{string(n.Type), n.Title, optInt(n.Year)}
	}
	sum := sha1.Sum([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Equal compares entities ignoring name case and whitespace.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	return *e.Normalized() == *o.Normalized()
}

func (e *Entity) String() string {
	switch e.Type {
	case EntityEpisode:
		s := e.Series
		if e.Year != 0 {
			s += fmt.Sprintf(" (%d)", e.Year)
		}
		if e.Country != "" {
			s += " " + strings.ToUpper(e.Country)
		}
		return fmt.Sprintf("%s S%02dE%02d", s, e.Season, e.Number)
	case EntityMovie:
		if e.Year != 0 {
			return fmt.Sprintf("%s (%d)", e.Title, e.Year)
		}
		return e.Title
	default:
		return string(e.Type)
	}
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func optInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
