package downloader

import "context"

// Item is one entry of a backend dump.
type Item struct {
	ID       string  `json:"id"`
	State    State   `json:"state"`
	Progress float64 `json:"progress"`
}

// Downloader is the capability a download backend provides.
//
// Every method reports transport failures as *BackendError. Cancel and
// Archive tolerate ids the backend does not know.
type Downloader interface {
	// Add submits uri and returns the backend's id for it.
	Add(ctx context.Context, uri string) (string, error)
	// Cancel removes the download and its data.
	Cancel(ctx context.Context, id string) error
	// Archive removes the download but keeps its data.
	Archive(ctx context.Context, id string) error
	// Dump enumerates everything the backend currently knows about.
	Dump(ctx context.Context) ([]Item, error)
}

// Closer is implemented by backends holding resources.
type Closer interface {
	Close() error
}

// Close releases d's resources if it holds any.
func Close(d Downloader) error {
	if c, ok := d.(Closer); ok {
		return c.Close()
	}
	return nil
}
