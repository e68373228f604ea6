package clipboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const magnet = "magnet:?xt=urn:btih:0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33&dn=foo"

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.allowedSchemes["magnet"])
	assert.True(t, v.allowedSchemes["https"])
}

func TestValidator_ExtractURI(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"magnet", magnet, magnet},
		{"magnet with spaces", "  " + magnet + "  ", magnet},
		{"uppercase scheme", "MAGNET:?xt=urn:btih:0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33", "MAGNET:?xt=urn:btih:0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"},
		{"torrent url", "https://example.com/a.torrent", "https://example.com/a.torrent"},
		{"trailing newline", magnet + "\n", magnet},
		{"plain http file", "https://example.com/file.zip", ""},
		{"empty", "", ""},
		{"newline in middle", "magnet:?xt=urn:btih:0beec7b5ea3f\n0fdbc95d0dd47f3c5bc275da8a33", ""},
		{"ftp", "ftp://example.com/a.torrent", ""},
		{"no scheme", "example.com/a.torrent", ""},
		{"too long", "magnet:?dn=" + strings.Repeat("a", maxURILen), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, v.ExtractURI(tt.input))
		})
	}
}

func TestValidator_DisallowedSchemeByConfig(t *testing.T) {
	v := &Validator{allowedSchemes: map[string]bool{"magnet": false}}
	assert.Empty(t, v.ExtractURI(magnet))
}

func TestValidator_ExtractAll(t *testing.T) {
	v := NewValidator()
	text := magnet + "\r\nnot a link\n\nhttps://example.com/b.torrent\n"
	assert.Equal(t, []string{magnet, "https://example.com/b.torrent"}, v.ExtractAll(text))
}

func TestReadURIs(t *testing.T) {
	original := clipboardReadAll
	t.Cleanup(func() { clipboardReadAll = original })

	t.Run("clipboard read error", func(t *testing.T) {
		clipboardReadAll = func() (string, error) { return "", errors.New("clipboard unavailable") }
		assert.Empty(t, ReadURIs())
	})

	t.Run("clipboard holds a magnet", func(t *testing.T) {
		clipboardReadAll = func() (string, error) { return "  " + magnet + "  ", nil }
		assert.Equal(t, []string{magnet}, ReadURIs())
	})
}
