package notifications

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisWithoutHubIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "test payload"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {
		t.Fatal("no messages expected")
	}))
}

func TestNotifier_NilRedisDeliversLocally(t *testing.T) {
	hub := NewHub()
	n := NewNotifier(nil)
	require.NoError(t, hub.StartWiring(context.Background(), n))

	owner, err := hub.Register(10, nil)
	require.NoError(t, err)
	other, err := hub.Register(11, nil)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), 10, Event{
		Type: EventReviewLiked,
		Data: ReviewLikedData{ReviewID: 1, LikedBy: 11, Nickname: "other", LikesCount: 1},
	}))
	assert.Contains(t, receive(t, owner), `"type":"review_liked"`)
	assert.Empty(t, other.Send)

	require.NoError(t, n.NotifyAll(context.Background(), Event{Type: EventReviewCreated, Data: ReviewCreatedData{ReviewID: 2}}))
	assert.Contains(t, receive(t, owner), EventReviewCreated)
	assert.Contains(t, receive(t, other), EventReviewCreated)
}

func TestNotifier_RedisFanOut(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	owner, err := hub.Register(21, nil)
	require.NoError(t, err)
	other, err := hub.Register(22, nil)
	require.NoError(t, err)

	require.NoError(t, n.Notify(ctx, 21, Event{Type: EventCommentCreated, Data: CommentCreatedData{ReviewID: 5}}))
	assert.Contains(t, receive(t, owner), EventCommentCreated)

	require.NoError(t, n.NotifyAll(ctx, Event{Type: EventReviewCreated, Data: ReviewCreatedData{ReviewID: 6}}))
	assert.Contains(t, receive(t, owner), EventReviewCreated)
	assert.Contains(t, receive(t, other), EventReviewCreated)
	assert.Empty(t, other.Send)
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewNotifier(rdb)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(string, string) {}))
	assert.Eventually(t, func() bool { return mr.PubSubNumPat() > 0 }, testEventuallyTimeout, testPollInterval)

	cancel()
	assert.Eventually(t, func() bool { return mr.PubSubNumPat() == 0 }, testEventuallyTimeout, testPollInterval)
}

func TestChannels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		channel string
		userID  uint
		ok      bool
	}{
		{UserChannel(1), 1, true},
		{UserChannel(100), 100, true},
		{"notifications:user:0", 0, false},
		{"notifications:user:abc", 0, false},
		{broadcastChannel, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			id, ok := parseUserChannel(tt.channel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.userID, id)
		})
	}
	assert.Equal(t, "notifications:user:42", UserChannel(42))
}
