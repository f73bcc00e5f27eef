package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/redis"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second), redis.WithPrefix("t:"))
	ctx := context.Background()
	sessionID := "session-ttl"

	require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID, "q1")))
	assert.True(t, mr.Exists("t:"+sessionID))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// The index is pruned against wall-clock time, which FastForward does not move.
	time.Sleep(2100 * time.Millisecond)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, sessionID)
}

func TestRedisStore_Ping(t *testing.T) {
	_, client := newClient(t)
	assert.NoError(t, redis.NewFromClient(client).Ping(context.Background()))
}
