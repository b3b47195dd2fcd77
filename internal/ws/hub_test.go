package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu     sync.Mutex
	events []string
	done   chan struct{}
}

func (s *recordingSaver) CreateNotification(_ context.Context, _ uuid.UUID, event string, _ interface{}) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func waitForClients(t *testing.T, hub *Hub, userID uuid.UUID, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount(userID) == want }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastToUser_DeliversEnvelopeAndSaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	saver := &recordingSaver{done: make(chan struct{}, 1)}
	hub.SetNotificationSaver(saver)
	go hub.Run()

	userID := uuid.New()
	client := NewClient(nil, hub, userID)
	hub.Register(client)
	waitForClients(t, hub, userID, 1)

	require.NoError(t, hub.BroadcastToUser(userID, EventBookingStatusChanged, map[string]string{"status": "accepted"}))

	select {
	case raw := <-client.send:
		var env struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, EventBookingStatusChanged, env.Type)
		assert.Equal(t, "accepted", env.Data["status"])
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}

	select {
	case <-saver.done:
	case <-time.After(time.Second):
		t.Fatal("notification was not saved")
	}
}

func TestHub_UnregisterRemovesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	go hub.Run()

	userID := uuid.New()
	client := NewClient(nil, hub, userID)
	hub.Register(client)
	waitForClients(t, hub, userID, 1)

	client.Close()
	waitForClients(t, hub, userID, 0)

	_, open := <-client.send
	assert.False(t, open)
}
