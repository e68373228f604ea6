package mock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

func TestBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	b := New()

	id, err := b.Add(ctx, "magnet:?xt=urn:btih:abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "mock:"))

	items, err := b.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, downloader.Item{ID: id, State: downloader.Initializing}, items[0])

	b.SetState(id, downloader.Downloading, 0.5)
	items, _ = b.Dump(ctx)
	assert.Equal(t, downloader.Downloading, items[0].State)
	assert.Equal(t, 0.5, items[0].Progress)

	require.NoError(t, b.Archive(ctx, id))
	require.NoError(t, b.Cancel(ctx, "never-seen"), "cancel tolerates unknown ids")
	items, _ = b.Dump(ctx)
	assert.Empty(t, items)
	assert.Equal(t, 1, b.Adds)
	assert.Equal(t, 1, b.Archives)
	assert.Equal(t, 1, b.Cancels)
}

func TestFailNextAdd(t *testing.T) {
	ctx := context.Background()
	b := New()
	cause := errors.New("daemon offline")
	b.FailNextAdd(cause)

	_, err := b.Add(ctx, "magnet:?")
	assert.True(t, downloader.IsBackendError(err))
	assert.ErrorIs(t, err, cause)

	_, err = b.Add(ctx, "magnet:?")
	assert.NoError(t, err)
}

func TestRegisteredInRegistry(t *testing.T) {
	d, err := downloader.New(Name, nil)
	require.NoError(t, err)
	assert.IsType(t, &Backend{}, d)
}
