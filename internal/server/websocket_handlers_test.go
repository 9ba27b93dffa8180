package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"cinelog/internal/notifications"
	"cinelog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return ln.Addr().String()
}

func dialStream(t *testing.T, addr, token string) (*gorillaws.Conn, *http.Response, error) {
	t.Helper()
	u := url.URL{Scheme: "ws", Host: addr, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	return gorillaws.DefaultDialer.Dial(u.String(), nil)
}

func TestWebsocket_RequiresUpgrade(t *testing.T) {
	ts := newTestServer(t, "activity_stream=on")
	token, _ := ts.register(t, "plain")

	status, body := ts.do(t, http.MethodGet, "/api/ws", token, nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.Equal(t, "Websocket upgrade required", body["message"])

	status, _ = ts.do(t, http.MethodGet, "/api/ws?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWebsocket_FlagOff(t *testing.T) {
	ts := newTestServer(t, "activity_stream=off")
	token, _ := ts.register(t, "muted")
	addr := ts.listen(t)

	_, resp, err := dialStream(t, addr, token)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebsocket_ActivityStream(t *testing.T) {
	ts := newTestServer(t, "activity_stream=on")
	ownerToken, ownerID := ts.register(t, "listener")
	fanToken, _ := ts.register(t, "liker")
	addr := ts.listen(t)

	conn, _, err := dialStream(t, addr, ownerToken)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return ts.hub.Connections(ownerID) == 1 }, 2*time.Second, 10*time.Millisecond)

	read := func() notifications.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev notifications.Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	}

	movie := testutil.CreateMovie(t, ts.db, "The Host", "Horror")
	status, body := ts.do(t, http.MethodPost, "/api/reviews", ownerToken, fiber.Map{"movieId": movie.ID, "rating": 4})
	require.Equal(t, http.StatusCreated, status)
	reviewID := uint(body["review"].(map[string]any)["id"].(float64))

	ev := read()
	assert.Equal(t, notifications.EventReviewCreated, ev.Type)
	assert.Equal(t, float64(movie.ID), ev.Data.(map[string]any)["movieId"])

	status, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/reviews/%d/like", reviewID), fanToken, nil)
	require.Equal(t, http.StatusOK, status)
	ev = read()
	assert.Equal(t, notifications.EventReviewLiked, ev.Type)
	assert.Equal(t, float64(reviewID), ev.Data.(map[string]any)["reviewId"])

	status, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/reviews/%d/comments", reviewID), fanToken, fiber.Map{"content": "Loved it"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, notifications.EventCommentCreated, read().Type)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return ts.hub.Connections(ownerID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
