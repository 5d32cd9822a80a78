package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)
	assert.Equal(t, maxConnsPerUser, hub.ConnectionCount(1))

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(5, nil)
	require.NoError(t, err)

	hub.UnregisterClient(client)
	hub.UnregisterClient(client)
	assert.Equal(t, 0, hub.ConnectionCount(5))

	_, open := <-client.Send
	assert.False(t, open)

	assert.NotPanics(t, func() { client.TrySend([]byte("late")) })
	assert.NotPanics(t, func() { hub.Broadcast(5, "nobody listens") })
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(7, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		client.TrySend([]byte("x"))
	}
	assert.Len(t, client.Send, sendBuffer)
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	for _, c := range []*Client{a, b} {
		_, open := <-c.Send
		assert.False(t, open)
	}
	assert.Equal(t, 0, hub.ConnectionCount(1))

	hub.UnregisterClient(a)
}
