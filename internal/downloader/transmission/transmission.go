// Package transmission drives a Transmission daemon over its RPC interface.
package transmission

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

const Name = "transmission"

func init() {
	downloader.Register(Name, func(s *config.Settings) (downloader.Downloader, error) {
		return New(s.Transmission), nil
	})
}

// Transmission torrent status codes.
const (
	statusStopped      = 0
	statusCheckWait    = 1
	statusCheck        = 2
	statusDownloadWait = 3
	statusDownload     = 4
	statusSeedWait     = 5
	statusSeed         = 6
)

var statusMap = downloader.StatusMap[int]{
	Backend: Name,
	States: map[int]downloader.State{
		statusCheckWait:    downloader.Initializing,
		statusCheck:        downloader.Initializing,
		statusDownloadWait: downloader.Queued,
		statusDownload:     downloader.Downloading,
		statusSeedWait:     downloader.Sharing,
		statusSeed:         downloader.Sharing,
	},
}

// Backend is a downloader.Downloader backed by Transmission. Foreign ids are
// torrent hash strings.
type Backend struct {
	rpc *client
}

// New builds a backend for the daemon described by s.
func New(s config.TransmissionSettings) *Backend {
	scheme := "http"
	if s.TLS {
		scheme = "https"
	}
	path := s.Path
	if path == "" {
		path = "/transmission/rpc"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, s.Host, s.Port, path)
	return NewWithURL(url, s.User, s.Password, &http.Client{Timeout: s.Timeout})
}

// NewWithURL builds a backend for an explicit RPC url.
func NewWithURL(url, user, password string, hc *http.Client) *Backend {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Backend{rpc: &client{http: hc, url: url, user: user, password: password}}
}

type torrentInfo struct {
	ID          int     `json:"id"`
	HashString  string  `json:"hashString"`
	Name        string  `json:"name"`
	Status      int     `json:"status"`
	PercentDone float64 `json:"percentDone"`
	IsFinished  bool    `json:"isFinished"`
}

func (b *Backend) Add(ctx context.Context, uri string) (string, error) {
	var out struct {
		Added     *torrentInfo `json:"torrent-added"`
		Duplicate *torrentInfo `json:"torrent-duplicate"`
	}
	args := map[string]any{"filename": uri}
	if err := b.rpc.call(ctx, "torrent-add", args, &out); err != nil {
		return "", downloader.Wrap(Name, "add", err)
	}
	switch {
	case out.Added != nil:
		return out.Added.HashString, nil
	case out.Duplicate != nil:
		return out.Duplicate.HashString, nil
	default:
		return "", downloader.Wrap(Name, "add", fmt.Errorf("daemon returned no torrent for %s", uri))
	}
}

// Cancel removes the torrent and deletes its data.
func (b *Backend) Cancel(ctx context.Context, id string) error {
	return b.remove(ctx, "cancel", id, true)
}

// Archive removes the torrent and keeps its data.
func (b *Backend) Archive(ctx context.Context, id string) error {
	return b.remove(ctx, "archive", id, false)
}

// remove tolerates hashes the daemon does not know: Transmission answers
// success for them.
func (b *Backend) remove(ctx context.Context, op, id string, deleteData bool) error {
	args := map[string]any{
		"ids":               []string{id},
		"delete-local-data": deleteData,
	}
	err := b.rpc.call(ctx, "torrent-remove", args, nil)
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return downloader.Wrap(Name, op, err)
}

func (b *Backend) Dump(ctx context.Context) ([]downloader.Item, error) {
	var out struct {
		Torrents []torrentInfo `json:"torrents"`
	}
	args := map[string]any{
		"fields": []string{"id", "hashString", "name", "status", "percentDone", "isFinished"},
	}
	if err := b.rpc.call(ctx, "torrent-get", args, &out); err != nil {
		return nil, downloader.Wrap(Name, "dump", err)
	}

	items := make([]downloader.Item, 0, len(out.Torrents))
	for _, t := range out.Torrents {
		items = append(items, downloader.Item{
			ID:       t.HashString,
			State:    stateOf(t),
			Progress: t.PercentDone,
		})
	}
	return items, nil
}

// stateOf maps a torrent's status. Stopped torrents are Done when their
// payload is complete and Paused otherwise.
func stateOf(t torrentInfo) downloader.State {
	if t.Status == statusStopped {
		if t.PercentDone >= 1 || t.IsFinished {
			return downloader.Done
		}
		return downloader.Paused
	}
	return statusMap.Lookup(t.Status)
}

// String describes the endpoint, for logs.
func (b *Backend) String() string {
	return Name + "(" + b.rpc.url + ")"
}

var _ downloader.Downloader = (*Backend)(nil)
