package ws

import (
	"biteswipe/internal/model"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTokens map[string]string

func (f fakeTokens) ValidateUserToken(token string) (*model.UserClaims, error) {
	if id, ok := f[token]; ok {
		return &model.UserClaims{UserID: id}, nil
	}
	return nil, errors.New("bad token")
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	h := NewHandler(hub, fakeTokens{"t1": "U1", "t2": "U2"}, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.Notifications))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubDeliversToEveryDeviceOfUser(t *testing.T) {
	hub, srv := newTestServer(t)

	phone := dial(t, srv, "t1")
	laptop := dial(t, srv, "t1")
	require.Eventually(t, func() bool { return hub.Connected("U1") == 2 }, 2*time.Second, 10*time.Millisecond)

	err := hub.Notify(context.Background(), "U1", "Alice invited you to a BiteSwipe session", map[string]interface{}{
		"type":     "session_invite",
		"joinCode": "AB12C",
	})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{phone, laptop} {
		msg := readMessage(t, conn)
		assert.Equal(t, MsgSessionInvite, msg.Type)
		assert.Equal(t, "Alice invited you to a BiteSwipe session", msg.Message)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "AB12C", payload["joinCode"])
	}
}

func TestHubOnlyReachesTheRecipient(t *testing.T) {
	hub, srv := newTestServer(t)

	u1 := dial(t, srv, "t1")
	u2 := dial(t, srv, "t2")
	require.Eventually(t, func() bool {
		return hub.Connected("U1") == 1 && hub.Connected("U2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Notify(context.Background(), "U2", "hello", nil))
	assert.Equal(t, MsgNotification, readMessage(t, u2).Type)

	require.NoError(t, u1.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := u1.ReadMessage()
	assert.Error(t, err)
}

func TestHubNotifyWithoutConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	assert.NoError(t, hub.Notify(context.Background(), "nobody", "hi", nil))
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "t1")
	require.Eventually(t, func() bool { return hub.Connected("U1") == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connected("U1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsBadTokens(t *testing.T) {
	_, srv := newTestServer(t)

	for _, token := range []string{"", "nope"} {
		resp, err := http.Get(srv.URL + "?token=" + token)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestClosedHubRejectsNotify(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Close()

	// the buffered channel may still accept; either way nothing blocks
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			_ = hub.Notify(context.Background(), "U1", "hi", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notify blocked on a closed hub")
	}
}
