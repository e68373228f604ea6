package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURI_Magnet(t *testing.T) {
	src, err := FromURI("magnet:?dn=Foo+Bar&xt=urn:btih:"+fooHash, "", "eztv")
	require.NoError(t, err)

	assert.Equal(t, "urn:btih:"+fooHash, src.ID)
	assert.Equal(t, "Foo Bar", src.Name)
	assert.Equal(t, "eztv", src.Provider)
	assert.Equal(t, "0beec7b5", src.ShortID())
	assert.NotZero(t, src.Created)
	assert.NoError(t, src.Validate())
}

func TestFromURI_ExplicitNameWins(t *testing.T) {
	src, err := FromURI("magnet:?dn=foo&xt=urn:btih:"+fooHash, "Custom", "")
	require.NoError(t, err)
	assert.Equal(t, "Custom", src.Name)
}

func TestFromURI_TorrentURLName(t *testing.T) {
	src, err := FromURI("https://example.com/dl/ubuntu.iso.torrent?key=1", "", "web")
	require.NoError(t, err)
	assert.Equal(t, "ubuntu.iso.torrent", src.Name)
	assert.Equal(t, PrefixSHA1, src.ID[:len(PrefixSHA1)])
}

func TestFromURI_Invalid(t *testing.T) {
	_, err := FromURI("magnet:?xt=urn:btih:nope", "", "")
	assert.Error(t, err)
}

func TestSource_Validate(t *testing.T) {
	assert.Error(t, Source{Name: "x", URI: "magnet:?"}.Validate())
	assert.Error(t, Source{ID: "urn:btih:" + fooHash}.Validate())
	bad := Source{ID: "a", URI: "b", Entity: &Entity{Type: "book"}}
	assert.Error(t, bad.Validate())
}

func TestSource_JSONRoundTripKeepsEntity(t *testing.T) {
	src := Source{
		ID:     "urn:btih:" + fooHash,
		Name:   "Lost S01E02",
		URI:    "magnet:?xt=urn:btih:" + fooHash,
		Entity: NewEpisode("Lost", 2004, 1, 2, ""),
	}
	raw, err := json.Marshal(src)
	require.NoError(t, err)

	var back Source
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, src, back)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("urn:btih:abc"))
	assert.Equal(t, "12345678", ShortID("sha1:1234567890"))
}
