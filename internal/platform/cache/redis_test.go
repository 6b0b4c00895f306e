package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewRedisFailedPingStillReturnsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	// A failed startup ping must not leave callers with a nil handle:
	// degraded starts keep the client and recover when Redis comes back.
	client, err := NewRedis(context.Background(), addr)
	require.Error(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
