package source

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindHTTP       Kind = "http"
	KindTorrentURL Kind = "torrent"
	KindMagnet     Kind = "magnet"
)

// ID prefixes of canonical source ids.
const (
	PrefixBTIH = "urn:btih:"
	PrefixSHA1 = "sha1:"
)

func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func IsTorrentURL(raw string) bool {
	if !IsHTTPURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".torrent")
}

func IsMagnet(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if strings.ToLower(u.Scheme) != "magnet" {
		return false
	}
	return u.Opaque != "" || u.RawQuery != ""
}

func KindOf(raw string) Kind {
	s := Normalize(raw)
	if s == "" {
		return KindUnknown
	}
	if IsMagnet(s) {
		return KindMagnet
	}
	if IsTorrentURL(s) {
		return KindTorrentURL
	}
	if IsHTTPURL(s) {
		return KindHTTP
	}
	return KindUnknown
}

// IsSupported reports whether raw can be handed to a torrent backend.
func IsSupported(raw string) bool {
	switch KindOf(raw) {
	case KindMagnet, KindTorrentURL:
		return true
	default:
		return false
	}
}

// CanonicalID returns the content-derived id of raw. Magnets map to
// urn:btih:<lowercase hex infohash> (base32 hashes are decoded); torrent and
// HTTP URLs map to sha1:<hex> of the normalised URL.
func CanonicalID(raw string) (Kind, string, error) {
	s := Normalize(raw)
	switch KindOf(s) {
	case KindMagnet:
		m, err := metainfo.ParseMagnetUri(s)
		if err != nil {
			return KindMagnet, "", &InvalidURIError{URI: raw, Reason: err.Error()}
		}
		if m.InfoHash == ([20]byte{}) {
			return KindMagnet, "", &InvalidURIError{URI: raw, Reason: "missing or invalid infohash"}
		}
		return KindMagnet, PrefixBTIH + hex.EncodeToString(m.InfoHash[:]), nil
	case KindTorrentURL, KindHTTP:
		u, err := url.Parse(s)
		if err != nil {
			return KindUnknown, "", &InvalidURIError{URI: raw, Reason: err.Error()}
		}
		u.Fragment = ""
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		sum := sha1.Sum([]byte(u.String()))
		return KindOf(s), PrefixSHA1 + hex.EncodeToString(sum[:]), nil
	default:
		return KindUnknown, "", &InvalidURIError{URI: raw, Reason: "unsupported uri"}
	}
}

// magnetDisplayName returns the dn parameter of a magnet, if any.
func magnetDisplayName(raw string) string {
	m, err := metainfo.ParseMagnetUri(Normalize(raw))
	if err != nil {
		return ""
	}
	return m.DisplayName
}

// InvalidURIError reports a URI no source id can be derived from.
type InvalidURIError struct {
	URI    string
	Reason string
}

func (e *InvalidURIError) Error() string {
	return "invalid source uri " + e.URI + ": " + e.Reason
}
