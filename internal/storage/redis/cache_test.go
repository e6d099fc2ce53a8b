package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestCache(t *testing.T) (*Cache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache, err := NewCache(ctx, Options{Addr: fmt.Sprintf("%s:%s", host, port.Port()), Prefix: "test:"})
	require.NoError(t, err)

	return cache, func() {
		cache.Close()
		_ = container.Terminate(ctx)
	}
}

func TestCache_SetAndGet(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "volume:mainnet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "volume:mainnet", []byte(`{"series":[]}`), time.Minute))

	got, ok, err := cache.Get(ctx, "volume:mainnet")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"series":[]}`, string(got))
}

func TestCache_Expiry(t *testing.T) {
	cache, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), 100*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, ok, err := cache.Get(ctx, "short")
		return err == nil && !ok
	}, 5*time.Second, 50*time.Millisecond)
}
