package native

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anacrolix/torrent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/store"
)

func TestSnapshotState(t *testing.T) {
	tests := []struct {
		name string
		s    snapshot
		want downloader.State
		prog float64
	}{
		{"no metadata", snapshot{}, downloader.Initializing, 0},
		{"partial", snapshot{hasInfo: true, completed: 25, length: 100}, downloader.Downloading, 0.25},
		{"complete seeding", snapshot{hasInfo: true, completed: 100, length: 100, seeding: true}, downloader.Sharing, 1},
		{"complete idle", snapshot{hasInfo: true, completed: 100, length: 100}, downloader.Done, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.state())
			assert.InDelta(t, tt.prog, tt.s.progress(), 1e-9)
		})
	}
}

func TestNewRequiresDataDir(t *testing.T) {
	_, err := New(config.NativeSettings{})
	assert.Error(t, err)
}

func newTestBackend(t *testing.T, dir string) *Backend {
	t.Helper()
	b, err := newBackend(config.NativeSettings{DataDir: dir}, func(cfg *torrent.ClientConfig) {
		cfg.ListenPort = 0
		cfg.NoDHT = true
		cfg.DisableTrackers = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

const testHash = "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"

func TestBackendMagnetLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a torrent client")
	}

	b := newTestBackend(t, t.TempDir())
	ctx := context.Background()
	id, err := b.Add(ctx, "magnet:?xt=urn:btih:"+testHash)
	require.NoError(t, err)
	assert.Equal(t, testHash, id)

	items, err := b.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, downloader.Initializing, items[0].State)

	require.NoError(t, b.Cancel(ctx, id))
	require.NoError(t, b.Cancel(ctx, id), "cancel tolerates unknown ids")
	require.NoError(t, b.Archive(ctx, "ffff"))

	items, err = b.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBackendResumesAfterRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a torrent client")
	}

	ctx := context.Background()
	dir := t.TempDir()

	first := newTestBackend(t, dir)
	id, err := first.Add(ctx, "magnet:?xt=urn:btih:"+testHash)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestBackend(t, dir)
	items, err := second.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)

	require.NoError(t, second.Archive(ctx, id))
	require.NoError(t, second.Close())

	third := newTestBackend(t, dir)
	items, err = third.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "archived torrents are not resumed")
}

func TestManagerKeepsRecordsAcrossRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a torrent client")
	}

	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")
	src, err := source.FromURI("magnet:?xt=urn:btih:"+testHash+"&dn=foo", "", "test")
	require.NoError(t, err)

	open := func() (*downloads.Manager, *store.Database, *Backend) {
		s, err := store.NewJSONStorage(dbPath)
		require.NoError(t, err)
		db, err := store.Open(s)
		require.NoError(t, err)
		b := newTestBackend(t, filepath.Join(dir, "data"))
		m, err := downloads.New(db, b)
		require.NoError(t, err)
		return m, db, b
	}

	m, db, b := open()
	require.NoError(t, m.Add(ctx, src))
	require.NoError(t, db.Close())
	require.NoError(t, b.Close())

	m, db, _ = open()
	defer db.Close()
	all, err := m.All(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, downloader.Initializing, all[0].State)

	for _, e := range m.History(src) {
		assert.NotEqual(t, downloads.EventVanished, e.Kind)
	}
}
