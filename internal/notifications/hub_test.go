package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	alice, err := hub.Register(1, nil)
	require.NoError(t, err)
	aliceTab, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, hub.Connections(1))
	assert.Equal(t, 1, hub.Connections(2))

	hub.Broadcast(1, `{"type":"review_liked","data":{}}`)
	assert.JSONEq(t, `{"type":"review_liked","data":{}}`, receive(t, alice))
	assert.JSONEq(t, `{"type":"review_liked","data":{}}`, receive(t, aliceTab))
	assert.Empty(t, bob.Send)

	hub.BroadcastAll(`{"type":"review_created","data":{}}`)
	for _, c := range []*Client{alice, aliceTab, bob} {
		assert.Contains(t, receive(t, c), EventReviewCreated)
	}
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(8, nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.UnregisterClient(client)
	hub.UnregisterClient(client)

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Connections(3))

	assert.NotPanics(t, func() { hub.Broadcast(3, "{}") })
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(4, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-client.Send
	assert.False(t, ok)

	_, err = hub.Register(4, nil)
	assert.ErrorIs(t, err, ErrHubShutdown)

	assert.NotPanics(t, func() { hub.UnregisterClient(client) })
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, client.TrySend([]byte("{}")))
	}
	assert.False(t, client.TrySend([]byte("{}")))
	assert.Len(t, client.Send, sendBuffer)
}

func TestClient_TrySendAfterCloseDoesNotPanic(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(6, nil)
	require.NoError(t, err)
	hub.UnregisterClient(client)

	assert.NotPanics(t, func() {
		assert.False(t, client.TrySend([]byte("{}")))
	})
}

func TestEvent_Encode(t *testing.T) {
	payload, err := Event{
		Type: EventCommentCreated,
		Data: CommentCreatedData{ReviewID: 9, CommentID: 2, UserID: 3, Nickname: "critic", Content: "agreed"},
	}.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, EventCommentCreated, decoded["type"])
	data := decoded["data"].(map[string]any)
	assert.EqualValues(t, 9, data["reviewId"])
	assert.Equal(t, "critic", data["nickname"])

	assert.Equal(t, EventCommentCreated, eventType(payload))
	assert.Equal(t, "unknown", eventType("not json"))
}
