package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{hub: hub, userID: userID, send: make(chan []byte, 4)}
}

func TestHub_BroadcastToUser_DeliversOnlyToRecipient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	go hub.Run()

	alice, bob := uuid.New(), uuid.New()
	aliceClient := newTestClient(hub, alice)
	bobClient := newTestClient(hub, bob)
	hub.Register(aliceClient)
	hub.Register(bobClient)
	assert.Eventually(t, func() bool { return hub.Online(alice) == 1 && hub.Online(bob) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.BroadcastToUser(alice, "ESCROW_RELEASED", map[string]string{"projectId": "p1"}))

	select {
	case raw := <-aliceClient.send:
		var msg struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "ESCROW_RELEASED", msg.Type)
		assert.Equal(t, "p1", msg.Data["projectId"])
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
	}

	select {
	case <-bobClient.send:
		t.Fatal("сообщение ушло не тому пользователю")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(ctx)
	go hub.Run()

	userID := uuid.New()
	client := newTestClient(hub, userID)
	hub.Register(client)
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return hub.Online(userID) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	cancel()

	for i := 0; i < 100; i++ {
		_ = hub.BroadcastToUser(uuid.New(), "PING", nil)
	}
	hub.Register(newTestClient(hub, uuid.New()))
}
