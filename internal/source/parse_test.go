package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooHash = "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"

func TestKindOf(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{"magnet:?xt=urn:btih:" + fooHash, KindMagnet},
		{"https://example.com/file.torrent", KindTorrentURL},
		{"http://example.com/FILE.TORRENT?x=1", KindTorrentURL},
		{"https://example.com/file.bin", KindHTTP},
		{"  ", KindUnknown},
		{"ftp://example.com/a.torrent", KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.raw), tt.raw)
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("magnet:?xt=urn:btih:"+fooHash))
	assert.True(t, IsSupported("https://example.com/file.torrent"))
	assert.False(t, IsSupported("https://example.com/file.bin"))
	assert.False(t, IsSupported("not a url"))
}

func TestCanonicalID_Magnet(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"hex", "magnet:?dn=foo&xt=urn:btih:" + fooHash},
		{"uppercase hex", "magnet:?dn=foo&xt=urn:btih:0BEEC7B5EA3F0FDBC95D0DD47F3C5BC275DA8A33"},
		{"base32", "magnet:?dn=foo&xt=urn:btih:BPXMPNPKH4H5XSK5BXKH6PC3YJ25VCRT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, id, err := CanonicalID(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, KindMagnet, kind)
			assert.Equal(t, "urn:btih:"+fooHash, id)
		})
	}
}

func TestCanonicalID_InvalidMagnet(t *testing.T) {
	_, _, err := CanonicalID("magnet:?dn=foo&xt=urn:btih:invalid")
	var invalid *InvalidURIError
	assert.ErrorAs(t, err, &invalid)
}

func TestCanonicalID_URLIgnoresFragmentAndHostCase(t *testing.T) {
	_, a, err := CanonicalID("https://Example.COM/f.torrent#frag")
	require.NoError(t, err)
	_, b, err := CanonicalID("https://example.com/f.torrent")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, PrefixSHA1)
}

func TestCanonicalID_Unsupported(t *testing.T) {
	_, _, err := CanonicalID("mailto:someone@example.com")
	assert.Error(t, err)
}
