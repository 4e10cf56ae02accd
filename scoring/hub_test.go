package scoring

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func subscribe(t *testing.T, hub *Hub, matchID int) *Client {
	t.Helper()
	client := NewClient(hub, nil, matchID)
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.rooms[matchID][client]
	}, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case raw := <-client.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Envelope{}
	}
}

func TestHub_PublishReachesAllRoomSubscribers(t *testing.T) {
	hub := newTestHub(t)

	a := subscribe(t, hub, 7)
	b := subscribe(t, hub, 7)
	other := subscribe(t, hub, 8)

	hub.Publish(7, EnvelopeScoreUpdate, map[string]int{"p1_sets": 1})

	for _, client := range []*Client{a, b} {
		env := receive(t, client)
		assert.Equal(t, EnvelopeScoreUpdate, env.Type)
		assert.Equal(t, 7, env.MatchID)
	}

	select {
	case <-other.Send:
		t.Fatal("subscriber of another match received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnsubscribedClientStopsReceiving(t *testing.T) {
	hub := newTestHub(t)
	client := subscribe(t, hub, 3)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.rooms[3]
		return !ok
	}, time.Second, 5*time.Millisecond)

	// Publishing to an empty room is a no-op, and the client channel is
	// closed so a blocked reader unblocks.
	hub.Publish(3, EnvelopeScoreUpdate, nil)
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := newTestHub(t)

	slow := subscribe(t, hub, 12)
	fast := subscribe(t, hub, 12)

	// Fill the slow client's buffer; further publishes must drop for it and
	// still reach the fast client promptly.
	for i := 0; i < sendBufferSize; i++ {
		slow.Send <- []byte("backlog")
	}

	done := make(chan struct{})
	go func() {
		hub.Publish(12, EnvelopeScoreUpdate, map[string]string{"p1_label": "40"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	env := receive(t, fast)
	assert.Equal(t, 12, env.MatchID)
}

// A snapshot queued before the client joins its room is always the first
// frame out, even when an event is published right after subscribe.
func TestHub_SnapshotBeforeSubscribeIsDeliveredFirst(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, nil, 21)
	client.SendSnapshot(map[string]int{"p1_games": 3})
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.rooms[21][client]
	}, time.Second, 5*time.Millisecond)

	hub.Publish(21, EnvelopeScoreUpdate, map[string]int{"p1_games": 4})

	first := receive(t, client)
	assert.Equal(t, EnvelopeSnapshot, first.Type)
	second := receive(t, client)
	assert.Equal(t, EnvelopeScoreUpdate, second.Type)
}

func TestHub_SendSnapshotOnlyToOneClient(t *testing.T) {
	hub := newTestHub(t)
	viewer := subscribe(t, hub, 4)
	other := subscribe(t, hub, 4)

	viewer.SendSnapshot(map[string]int{"p1_games": 5})

	env := receive(t, viewer)
	assert.Equal(t, EnvelopeSnapshot, env.Type)

	select {
	case <-other.Send:
		t.Fatal("snapshot leaked to another subscriber")
	case <-time.After(50 * time.Millisecond):
	}
}
