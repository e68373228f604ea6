package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arroyo-downloader/arroyo/internal/config"
)

type nopDownloader struct{ closed bool }

func (n *nopDownloader) Add(context.Context, string) (string, error) { return "x", nil }
func (n *nopDownloader) Cancel(context.Context, string) error        { return nil }
func (n *nopDownloader) Archive(context.Context, string) error       { return nil }
func (n *nopDownloader) Dump(context.Context) ([]Item, error)        { return nil, nil }
func (n *nopDownloader) Close() error                                { n.closed = true; return nil }

func TestRegistry(t *testing.T) {
	Register("registry-test", func(*config.Settings) (Downloader, error) {
		return &nopDownloader{}, nil
	})
	Register("registry-test-broken", func(*config.Settings) (Downloader, error) {
		return nil, errors.New("no daemon")
	})

	assert.Contains(t, Names(), "registry-test")
	assert.Panics(t, func() {
		Register("registry-test", func(*config.Settings) (Downloader, error) { return nil, nil })
	})

	d, err := New("registry-test", nil)
	require.NoError(t, err)
	require.NoError(t, Close(d))
	assert.True(t, d.(*nopDownloader).closed)

	_, err = New("registry-test-broken", config.DefaultSettings())
	assert.ErrorContains(t, err, "no daemon")

	_, err = New("does-not-exist", nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestBackendErrorWrap(t *testing.T) {
	assert.NoError(t, Wrap("b", "add", nil))

	cause := errors.New("connection refused")
	err := Wrap("transmission", "add", cause)
	assert.True(t, IsBackendError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transmission: add: connection refused", err.Error())

	again := Wrap("other", "dump", err)
	assert.Same(t, err, again)
	assert.False(t, IsBackendError(cause))
}
