package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntity_EqualIgnoresCaseAndSpacing(t *testing.T) {
	a := NewEpisode("The  Office", 2005, 2, 3, "US")
	b := NewEpisode("the office", 2005, 2, 3, "us")
	c := NewEpisode("The Office", 2005, 2, 4, "US")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.ID(), b.ID())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.ID(), c.ID())
	assert.False(t, a.Equal(nil))
}

func TestEntity_MovieVsEpisode(t *testing.T) {
	m := NewMovie("Alien", 1979)
	e := &Entity{Type: EntityEpisode, Series: "Alien", Year: 1979}
	assert.False(t, m.Equal(e))
	assert.NotEqual(t, m.ID(), e.ID())
}

func TestEntity_Validate(t *testing.T) {
	assert.NoError(t, NewMovie("Alien", 0).Validate())
	assert.Error(t, NewMovie("", 0).Validate())
	assert.Error(t, NewEpisode("", 0, 1, 1, "").Validate())
	assert.Error(t, (&Entity{Type: "book"}).Validate())
}

func TestEntity_String(t *testing.T) {
	assert.Equal(t, "Lost S01E02", NewEpisode("Lost", 0, 1, 2, "").String())
	assert.Equal(t, "The Office (2005) US S02E03", NewEpisode("The Office", 2005, 2, 3, "us").String())
	assert.Equal(t, "Alien (1979)", NewMovie("Alien", 1979).String())
	assert.Equal(t, "Alien", NewMovie("Alien", 0).String())
}
