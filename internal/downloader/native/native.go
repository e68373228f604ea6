// Package native runs an embedded BitTorrent client.
package native

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/store"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

const Name = "native"

func init() {
	downloader.Register(Name, func(s *config.Settings) (downloader.Downloader, error) {
		return New(s.Native)
	})
}

// Backend is a downloader.Downloader on top of anacrolix/torrent. Foreign
// ids are infohash hex strings. Every added torrent is recorded under
// <data dir>/.arroyo and re-added when the backend starts again.
type Backend struct {
	client  *torrent.Client
	dataDir string
	http    *http.Client

	mu       sync.Mutex
	db       *store.Database
	torrents *store.KVTable[entry]

	closeOnce sync.Once
	closed    chan struct{}
}

// entry is what the backend remembers about one torrent across restarts.
type entry struct {
	Magnet string `json:"magnet"`
	Name   string `json:"name,omitempty"`
}

const registryTable = "torrents"

// New starts a client downloading into s.DataDir and resumes the torrents
// added by earlier runs.
func New(s config.NativeSettings) (*Backend, error) {
	return newBackend(s, nil)
}

func newBackend(s config.NativeSettings, tweak func(*torrent.ClientConfig)) (*Backend, error) {
	if s.DataDir == "" {
		return nil, fmt.Errorf("native.data_dir is not set")
	}
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	storage, err := store.NewJSONStorage(filepath.Join(s.DataDir, ".arroyo", "torrents.json"))
	if err != nil {
		return nil, err
	}
	db, err := store.Open(storage)
	if err != nil {
		storage.Close()
		return nil, err
	}
	torrents, err := store.NewKVTable[entry](db, registryTable)
	if err != nil {
		db.Close()
		return nil, err
	}

	cfg := torrent.NewDefaultClientConfig()
	cfg.DataDir = s.DataDir
	cfg.ListenPort = s.ListenPort
	cfg.Seed = s.Seed
	if tweak != nil {
		tweak(cfg)
	}

	c, err := torrent.NewClient(cfg)
	if err != nil {
		db.Close()
		return nil, downloader.Wrap(Name, "start", err)
	}
	b := &Backend{
		client:   c,
		dataDir:  s.DataDir,
		http:     http.DefaultClient,
		db:       db,
		torrents: torrents,
		closed:   make(chan struct{}),
	}
	b.resume()
	return b, nil
}

// resume re-adds every recorded torrent, preferring the saved metainfo over
// the magnet so metadata does not have to come from peers again.
func (b *Backend) resume() {
	for _, p := range b.torrents.All() {
		var (
			t   *torrent.Torrent
			err error
		)
		if mi, lerr := metainfo.LoadFromFile(b.metainfoPath(p.Key)); lerr == nil {
			t, err = b.client.AddTorrent(mi)
		} else {
			t, err = b.client.AddMagnet(p.Value.Magnet)
		}
		if err != nil {
			utils.Debug("native: failed to resume %s: %v", p.Key, err)
			continue
		}
		go b.downloadWhenReady(t)
	}
	utils.Debug("native: resumed %d torrents", len(b.client.Torrents()))
}

func (b *Backend) metainfoPath(id string) string {
	return filepath.Join(b.dataDir, ".arroyo", id+".torrent")
}

func (b *Backend) Add(ctx context.Context, uri string) (string, error) {
	var (
		t   *torrent.Torrent
		err error
	)
	magnet := source.Normalize(uri)
	switch source.KindOf(uri) {
	case source.KindMagnet:
		t, err = b.client.AddMagnet(magnet)
	case source.KindTorrentURL, source.KindHTTP:
		var mi *metainfo.MetaInfo
		mi, err = b.fetchMetaInfo(ctx, uri)
		if err == nil {
			t, err = b.client.AddTorrent(mi)
			magnet = "magnet:?xt=urn:btih:" + mi.HashInfoBytes().HexString()
		}
	default:
		err = fmt.Errorf("unsupported uri %q", uri)
	}
	if err != nil {
		return "", downloader.Wrap(Name, "add", err)
	}

	id := t.InfoHash().HexString()
	b.mu.Lock()
	if !b.torrents.Has(id) {
		err = b.torrents.Set(id, entry{Magnet: magnet})
	}
	b.mu.Unlock()
	if err != nil {
		t.Drop()
		return "", downloader.Wrap(Name, "add", err)
	}

	go b.downloadWhenReady(t)
	return id, nil
}

func (b *Backend) fetchMetaInfo(ctx context.Context, uri string) (*metainfo.MetaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return metainfo.Load(resp.Body)
}

// downloadWhenReady starts the download once metadata is known and saves
// the metainfo for later runs.
func (b *Backend) downloadWhenReady(t *torrent.Torrent) {
	select {
	case <-t.GotInfo():
	case <-b.closed:
		return
	}
	t.DownloadAll()
	utils.Debug("native: downloading %s", t.Name())

	if err := b.remember(t); err != nil {
		utils.Debug("native: failed to save metainfo for %s: %v", t.Name(), err)
	}
}

func (b *Backend) remember(t *torrent.Torrent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.closed:
		return nil
	default:
	}
	id := t.InfoHash().HexString()
	e, err := b.torrents.Get(id)
	if err != nil {
		// Dropped while waiting for metadata.
		return nil
	}

	f, err := os.Create(b.metainfoPath(id))
	if err != nil {
		return err
	}
	mi := t.Metainfo()
	if err := mi.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.Name = t.Name()
	return b.torrents.Set(id, e)
}

// forget drops id from the registry and returns what was recorded for it.
func (b *Backend) forget(id string) (entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.torrents.Get(id)
	if err != nil {
		return entry{}, nil
	}
	if err := os.Remove(b.metainfoPath(id)); err != nil && !os.IsNotExist(err) {
		return e, err
	}
	return e, b.torrents.Drop(id)
}

func (b *Backend) find(id string) *torrent.Torrent {
	for _, t := range b.client.Torrents() {
		if t.InfoHash().HexString() == id {
			return t
		}
	}
	return nil
}

// Cancel drops the torrent and deletes whatever it downloaded.
func (b *Backend) Cancel(_ context.Context, id string) error {
	var name string
	if t := b.find(id); t != nil {
		if t.Info() != nil {
			name = t.Name()
		}
		t.Drop()
	}
	e, err := b.forget(id)
	if err != nil {
		return downloader.Wrap(Name, "cancel", err)
	}
	if name == "" {
		name = e.Name
	}
	if name != "" {
		if err := os.RemoveAll(filepath.Join(b.dataDir, name)); err != nil {
			return downloader.Wrap(Name, "cancel", err)
		}
	}
	return nil
}

// Archive drops the torrent and keeps its data.
func (b *Backend) Archive(_ context.Context, id string) error {
	if t := b.find(id); t != nil {
		t.Drop()
	}
	if _, err := b.forget(id); err != nil {
		return downloader.Wrap(Name, "archive", err)
	}
	return nil
}

func (b *Backend) Dump(context.Context) ([]downloader.Item, error) {
	torrents := b.client.Torrents()
	items := make([]downloader.Item, 0, len(torrents))
	for _, t := range torrents {
		var st snapshot
		if t.Info() != nil {
			st = snapshot{
				hasInfo:   true,
				completed: t.BytesCompleted(),
				length:    t.Length(),
				seeding:   t.Seeding(),
			}
		}
		items = append(items, downloader.Item{
			ID:       t.InfoHash().HexString(),
			State:    st.state(),
			Progress: st.progress(),
		})
	}
	return items, nil
}

func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		close(b.closed)
		b.mu.Unlock()
		b.client.Close()
		err = b.db.Close()
	})
	return err
}

// snapshot is the part of a torrent's status that determines its State.
type snapshot struct {
	hasInfo   bool
	completed int64
	length    int64
	seeding   bool
}

func (s snapshot) state() downloader.State {
	switch {
	case !s.hasInfo:
		return downloader.Initializing
	case s.length > 0 && s.completed >= s.length && s.seeding:
		return downloader.Sharing
	case s.length > 0 && s.completed >= s.length:
		return downloader.Done
	default:
		return downloader.Downloading
	}
}

func (s snapshot) progress() float64 {
	if !s.hasInfo || s.length <= 0 {
		return 0
	}
	return float64(s.completed) / float64(s.length)
}

var (
	_ downloader.Downloader = (*Backend)(nil)
	_ downloader.Closer     = (*Backend)(nil)
)
