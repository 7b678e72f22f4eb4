package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStateStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStateStore(client), mr
}

func TestStateStore_RoundTrip(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "https://app.example.com/after-login")
	require.NoError(t, err)
	assert.Len(t, state, 64) // 32 bytes hex

	redirectURI, err := store.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/after-login", redirectURI)
}

func TestStateStore_StateConsumedAfterValidation(t *testing.T) {
	store, _ := setupStateStore(t)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "https://app.example.com")
	require.NoError(t, err)

	_, err = store.ValidateState(ctx, state)
	require.NoError(t, err)

	_, err = store.ValidateState(ctx, state)
	assert.Error(t, err)
}

func TestStateStore_EmptyState(t *testing.T) {
	store, _ := setupStateStore(t)

	_, err := store.ValidateState(context.Background(), "")
	assert.Error(t, err)
}

func TestStateStore_ExpiredState(t *testing.T) {
	store, mr := setupStateStore(t)
	ctx := context.Background()

	state, err := store.GenerateState(ctx, "https://app.example.com")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	_, err = store.ValidateState(ctx, state)
	assert.Error(t, err)
}

func TestStateStore_UnknownState(t *testing.T) {
	store, _ := setupStateStore(t)

	_, err := store.ValidateState(context.Background(), "deadbeef")
	assert.Error(t, err)
}
