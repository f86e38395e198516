package server

import (
	"context"
	"testing"

	"github.com/obotesoftech/prisonreturns/config"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedStorage struct {
	*storage.Memory
	closed int
}

func (t *trackedStorage) Close() error {
	t.closed++
	return t.Memory.Close()
}

func trackStorage(t *testing.T) *trackedStorage {
	t.Helper()
	tracked := &trackedStorage{Memory: storage.NewMemory("returns")}
	previous := openObjectStorage
	openObjectStorage = func(context.Context, config.StorageConfig) (storage.ObjectStorage, error) {
		return tracked, nil
	}
	t.Cleanup(func() { openObjectStorage = previous })
	return tracked
}

func memoryConfig() config.Config {
	return config.Config{
		JWTSecret: "0123456789abcdef-test-secret",
		Database:  config.DatabaseConfig{Driver: "memory"},
		Storage:   config.StorageConfig{Backend: "memory"},
		MQ:        config.MQConfig{Backend: "memory"},
		Auth: config.AuthConfig{
			AdminEmail:    "admin@prison.go.ug",
			AdminPassword: adminPassword,
		},
	}
}

func TestNewClosesStorageWhenBusFails(t *testing.T) {
	tracked := trackStorage(t)
	cfg := memoryConfig()
	cfg.MQ.Backend = "carrier-pigeon"

	srv, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Contains(t, err.Error(), "message bus")
	assert.Equal(t, 1, tracked.closed)
}

func TestNewClosesStorageWhenBootstrapFails(t *testing.T) {
	tracked := trackStorage(t)
	cfg := memoryConfig()
	cfg.Auth.AdminEmail = "not-an-email"

	srv, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Contains(t, err.Error(), "bootstrap accounts")
	assert.Equal(t, 1, tracked.closed)
}

func TestShutdownClosesStorage(t *testing.T) {
	tracked := trackStorage(t)

	srv, err := New(context.Background(), memoryConfig(), logging.Discard())
	require.NoError(t, err)
	require.Zero(t, tracked.closed)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.Equal(t, 1, tracked.closed)
}
