//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupValkey(t *testing.T) *Valkey {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "valkey/valkey:8-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	valkeyC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		valkeyC.Terminate(ctx)
	})

	endpoint, err := valkeyC.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewValkey(endpoint)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func TestValkey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	c := setupValkey(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":1}`, string(v))

	n, err := c.Incr(ctx, "generation")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = c.Incr(ctx, "generation")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
