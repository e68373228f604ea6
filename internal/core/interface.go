package core

import (
	"context"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
)

// AddRequest describes a download to submit.
type AddRequest struct {
	URI      string         `json:"uri"`
	Name     string         `json:"name,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Entity   *source.Entity `json:"entity,omitempty"`
}

// AddResult reports the source an AddRequest resolved to.
type AddResult struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	State downloader.State `json:"state"`
}

// DownloadService is the operation surface shared by the CLI, the watch view
// and the HTTP API. It is implemented locally over a downloads.Manager and
// remotely over a running `arroyo serve`.
//
// Download ids may be full source ids or unique prefixes of them.
type DownloadService interface {
	// Add submits a download unless it is already being handled.
	Add(ctx context.Context, req AddRequest) (AddResult, error)

	// List syncs and returns tracked downloads.
	List(ctx context.Context, includeArchived bool) ([]downloads.Download, error)

	// Get syncs and returns a single download.
	Get(ctx context.Context, id string) (downloads.Download, error)

	// Cancel removes a download and its data.
	Cancel(ctx context.Context, id string) (source.Source, error)

	// Archive removes a download from the backend, keeping its data.
	Archive(ctx context.Context, id string) (source.Source, error)

	// Sync reconciles local records with the backend.
	Sync(ctx context.Context) error

	// History returns the lifecycle events of a download.
	History(ctx context.Context, id string) ([]downloads.Event, error)
}
