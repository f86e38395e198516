package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("returns")

	require.NoError(t, m.Put(ctx, "returns/1/roll.csv", strings.NewReader("a,b"), 3, "text/csv"))
	assert.Equal(t, 1, m.Len())

	rc, err := m.Get(ctx, "returns/1/roll.csv")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(body))

	require.NoError(t, m.Delete(ctx, "returns/1/roll.csv"))
	_, err = m.Get(ctx, "returns/1/roll.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewSelectsBackend(t *testing.T) {
	backend, err := New(context.Background(), config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, backend)

	_, err = New(context.Background(), config.StorageConfig{Backend: "floppy"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Backend: "minio"})
	assert.Error(t, err)
}

type failingBucket struct {
	*Memory
	closed bool
}

func (f *failingBucket) EnsureBucket(ctx context.Context) error {
	return errors.New("access denied")
}

func (f *failingBucket) Close() error {
	f.closed = true
	return f.Memory.Close()
}

func TestReadyClosesUnusableBackend(t *testing.T) {
	backend := &failingBucket{Memory: NewMemory("returns")}
	_, err := ready(context.Background(), backend)
	require.Error(t, err)
	assert.True(t, backend.closed)
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("returns")
	require.NoError(t, m.Put(ctx, "k", strings.NewReader("v"), 1, ""))
	require.NoError(t, m.Close())
	assert.Zero(t, m.Len())
}
