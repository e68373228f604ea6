package clipboard

import (
	"net/url"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/arroyo-downloader/arroyo/internal/source"
)

var clipboardReadAll = clipboard.ReadAll

// maxURILen bounds a single clipboard entry. Magnets with many trackers are
// long, so this is more generous than a plain URL limit.
const maxURILen = 8192

type Validator struct {
	allowedSchemes map[string]bool
}

func NewValidator() *Validator {
	return &Validator{
		allowedSchemes: map[string]bool{"magnet": true, "http": true, "https": true},
	}
}

// ExtractURI returns text as a download URI if it is a magnet link or a
// .torrent URL, or "" otherwise.
func (v *Validator) ExtractURI(text string) string {
	text = strings.TrimSpace(text)

	// Quick reject: too long or contains newlines
	if len(text) > maxURILen || strings.ContainsAny(text, "\n\r") {
		return ""
	}

	parsed, err := url.Parse(text)
	if err != nil || !v.allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return ""
	}
	if !source.IsSupported(text) {
		return ""
	}
	return text
}

// ExtractAll returns every supported URI in text, one per line.
func (v *Validator) ExtractAll(text string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if uri := v.ExtractURI(line); uri != "" {
			out = append(out, uri)
		}
	}
	return out
}

// ReadURIs returns the supported URIs currently on the clipboard.
func ReadURIs() []string {
	text, err := clipboardReadAll()
	if err != nil {
		return nil
	}
	return NewValidator().ExtractAll(text)
}
