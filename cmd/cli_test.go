package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arroyo-downloader/arroyo/internal/api"
	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
	mockbackend "github.com/arroyo-downloader/arroyo/internal/downloader/mock"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/store"
)

const (
	fooMagnet = "magnet:?xt=urn:btih:0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33&dn=Foo"
	barMagnet = "magnet:?xt=urn:btih:62cdb7020ff920e5aa642c3d4066950dd1f01f4d&dn=Bar"
)

// setupCLI points every arroyo directory into a temp dir and shares one mock
// backend across command invocations.
func setupCLI(t *testing.T) *mockbackend.Backend {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "runtime"))
	require.NoError(t, config.EnsureDirs())

	backend := mockbackend.New()
	prev := newBackend
	newBackend = func(string, *config.Settings) (downloader.Downloader, error) {
		return backend, nil
	}
	t.Cleanup(func() {
		newBackend = prev
		_ = ReleaseLock()
	})
	return backend
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLI_Lifecycle(t *testing.T) {
	backend := setupCLI(t)

	out, err := executeCommand(t, "add", fooMagnet, barMagnet)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added: Foo [0beec7b5]")
	assert.Contains(t, out, "Added: Bar [62cdb702]")
	assert.Equal(t, 2, backend.Adds)

	// Re-adding a tracked source doesn't reach the backend.
	_, err = executeCommand(t, "add", fooMagnet)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Adds)

	out, err = executeCommand(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "Bar")
	assert.Contains(t, out, "initializing")

	out, err = executeCommand(t, "archive", "0beec7")
	require.NoError(t, err)
	assert.Contains(t, out, "Archived: Foo [0beec7b5]")

	out, err = executeCommand(t, "ls")
	require.NoError(t, err)
	assert.NotContains(t, out, "Foo")

	out, err = executeCommand(t, "ls", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "archived")

	out, err = executeCommand(t, "rm", "62cdb")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled: Bar")

	out, err = executeCommand(t, "cancel", "62cdb")
	assert.Error(t, err)
	assert.Contains(t, out, "Error: 62cdb")

	out, err = executeCommand(t, "history", "0beec7b5")
	require.NoError(t, err)
	assert.Contains(t, out, "added")
	assert.Contains(t, out, "archived")
}

func TestCLI_RecordsSurviveRestart(t *testing.T) {
	setupCLI(t)

	_, err := executeCommand(t, "add", fooMagnet)
	require.NoError(t, err)

	settings, err := config.LoadSettings()
	require.NoError(t, err)
	data, err := os.ReadFile(settings.DatabasePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "urn:btih:0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33")
}

func TestCLI_SyncReportsCounts(t *testing.T) {
	backend := setupCLI(t)

	_, err := executeCommand(t, "add", fooMagnet, barMagnet)
	require.NoError(t, err)

	out, err := executeCommand(t, "ls", "--json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))

	// Drive Foo to completion through the backend.
	dump, err := backend.Dump(t.Context())
	require.NoError(t, err)
	require.Len(t, dump, 2)
	backend.SetState(dump[0].ID, downloader.Sharing, 1)

	out, err = executeCommand(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 2 downloads (1 active, 1 complete, 0 archived).")
}

func TestCLI_AddErrors(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "add", "ftp://example.com/x")
	assert.Error(t, err)
	assert.Contains(t, out, "Error adding ftp://example.com/x")

	_, err = executeCommand(t, "add", "--name", "x", fooMagnet, barMagnet)
	assert.ErrorContains(t, err, "--name applies to a single uri")

	_, err = executeCommand(t, "add", "--series", "Lost", "--movie", "Alien", fooMagnet)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestCLI_AddWithEntityAndBatch(t *testing.T) {
	setupCLI(t)

	batch := filepath.Join(t.TempDir(), "uris.txt")
	require.NoError(t, os.WriteFile(batch, []byte("# queue\n\n"+fooMagnet+"\n"), 0o644))

	out, err := executeCommand(t, "add", "--batch", batch, "--series", "Lost", "--season", "1", "--episode", "2")
	require.NoError(t, err, out)

	settings, err := config.LoadSettings()
	require.NoError(t, err)
	storage, err := store.OpenStorage(settings.Store.Backend, settings.DatabasePath())
	require.NoError(t, err)
	db, err := store.Open(storage)
	require.NoError(t, err)
	defer db.Close()

	m, err := downloads.New(db, mockbackend.New())
	require.NoError(t, err)
	srcs := m.SourcesForEntity(source.NewEpisode("lost", 0, 1, 2, ""))
	require.Len(t, srcs, 1)
	assert.Equal(t, "Foo", srcs[0].Name)
}

func TestCLI_UsesRunningServerWhenLocked(t *testing.T) {
	setupCLI(t)

	// Stand in for `arroyo serve`: hold the lock and advertise an API.
	db, err := store.Open(store.NewMemoryStorage())
	require.NoError(t, err)
	m, err := downloads.New(db, mockbackend.New())
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewServer(core.NewLocalDownloadService(m), "").Router())
	defer srv.Close()

	held := flock.New(lockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	require.NoError(t, saveServerInfo(serverInfo{Addr: strings.TrimPrefix(srv.URL, "http://")}))
	defer removeServerInfo()

	out, err := executeCommand(t, "add", fooMagnet)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added: Foo")
	assert.Len(t, m.Sources(), 1, "the add went to the server's manager")
}

func TestCLI_LockedWithoutServer(t *testing.T) {
	setupCLI(t)

	held := flock.New(lockPath())
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = executeCommand(t, "ls")
	assert.ErrorContains(t, err, "no API server is advertised")
}

func TestCLI_Settings(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "settings", "--downloader", "mock")
	require.NoError(t, err)
	assert.Contains(t, out, "general.downloader")
	assert.Contains(t, out, "mock")
	assert.Contains(t, out, "watch.interval")
	assert.Contains(t, out, "30s")

	out, err = executeCommand(t, "settings", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	_, err = os.Stat(config.GetSettingsPath())
	require.NoError(t, err)

	_, err = executeCommand(t, "settings", "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestCLI_InvalidStoreFlag(t *testing.T) {
	setupCLI(t)
	_, err := executeCommand(t, "ls", "--store", "postgres")
	assert.ErrorContains(t, err, "invalid store.backend")
}

func TestFlattenSettings_CoversMetadata(t *testing.T) {
	values, err := flattenSettings(config.DefaultSettings())
	require.NoError(t, err)
	for _, metas := range config.GetSettingsMetadata() {
		for _, m := range metas {
			_, ok := values[m.Key]
			assert.True(t, ok, "missing %s", m.Key)
		}
	}
}

func TestStateReporter(t *testing.T) {
	var buf bytes.Buffer
	r := newStateReporter(&buf)

	src, err := source.FromURI(fooMagnet, "", "test")
	require.NoError(t, err)

	r.report([]downloads.Download{{Source: src, State: downloader.Downloading, Progress: 0.5}})
	assert.Contains(t, buf.String(), "Tracking: Foo [0beec7b5] downloading 50%")

	buf.Reset()
	r.report([]downloads.Download{{Source: src, State: downloader.Downloading, Progress: 0.7}})
	assert.Empty(t, buf.String(), "progress alone is not a state change")

	r.report([]downloads.Download{{Source: src, State: downloader.Sharing, Progress: 1}})
	assert.Contains(t, buf.String(), "Completed: Foo [0beec7b5] (was downloading)")

	buf.Reset()
	r.report(nil)
	assert.Contains(t, buf.String(), "Removed: Foo [0beec7b5]")
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("  a  \n# comment\n\nb\n"), 0o644))

	urls, err := readURLsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, urls)

	_, err = readURLsFromFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// TestLsCmd_Alias verify 'l' alias exists
func TestLsCmd_Alias(t *testing.T) {
	assert.True(t, slices.Contains(lsCmd.Aliases, "l"))
	assert.True(t, slices.Contains(cancelCmd.Aliases, "rm"))
}
