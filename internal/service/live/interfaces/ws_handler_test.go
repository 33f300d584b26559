// internal/service/live/interfaces/ws_handler_test.go
package interfaces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"paddock/internal/service/live/application"
	"paddock/internal/service/live/infrastructure"
)

func newRegisteredClient(t *testing.T, hub *Hub, sessionID string, buffer int) *Client {
	t.Helper()
	client := &Client{hub: hub, send: make(chan []byte, buffer), sessionID: sessionID, userID: "u-" + sessionID}
	hub.register <- client

	// 注册在 Run goroutine 中异步完成，广播前等它生效
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.lock.RLock()
		_, subscribed := hub.sessions[sessionID][client]
		hub.lock.RUnlock()
		if subscribed {
			return client
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client was not registered in time")
	return nil
}

func waitForPayload(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast payload")
		return nil
	}
}

func TestHub_BroadcastReachesOnlySubscribedSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	race1 := newRegisteredClient(t, hub, "race-1", 4)
	race1b := newRegisteredClient(t, hub, "race-1", 4)
	race2 := newRegisteredClient(t, hub, "race-2", 4)

	hub.Broadcast("race-1", []byte("payload"))

	assert.Equal(t, []byte("payload"), waitForPayload(t, race1.send))
	assert.Equal(t, []byte("payload"), waitForPayload(t, race1b.send))
	select {
	case <-race2.send:
		t.Fatal("client of another session received the broadcast")
	default:
	}
}

func TestHub_SlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := newRegisteredClient(t, hub, "race-1", 1)
	fast := newRegisteredClient(t, hub, "race-1", 4)

	// 塞满慢客户端的缓冲，后续广播对它直接丢弃
	hub.Broadcast("race-1", []byte("first"))
	hub.Broadcast("race-1", []byte("second"))

	assert.Equal(t, []byte("first"), waitForPayload(t, slow.send))
	assert.Equal(t, []byte("first"), waitForPayload(t, fast.send))
	assert.Equal(t, []byte("second"), waitForPayload(t, fast.send))
}

type flakySessionRegistry struct {
	setErr error
}

func (r *flakySessionRegistry) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return r.setErr
}

func (r *flakySessionRegistry) ClearUserGateway(ctx context.Context, userID string) error {
	return nil
}

func dialWS(t *testing.T, serverURL, sessionID, userID string) (*websocket.Conn, error) {
	t.Helper()
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws?sessionId=" + sessionID + "&userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	return conn, err
}

func sessionClientCount(hub *Hub, sessionID string) int {
	hub.lock.RLock()
	defer hub.lock.RUnlock()
	return len(hub.sessions[sessionID])
}

func TestServeWs_FailedSessionRegistrationLeavesNoClientBehind(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	service := application.NewLiveService(infrastructure.NewMemoryLeaderboardStore(), hub, otel.Tracer("test"))
	registry := &flakySessionRegistry{setErr: errors.New("redis unreachable")}
	handler := NewLiveHandler(hub, service, registry, "gw-test")

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	// 会话登记失败: 握手成功但连接随即被服务端关闭
	conn, err := dialWS(t, server.URL, "race-1", "u1")
	if err == nil {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, readErr := conn.ReadMessage()
		require.Error(t, readErr)
		conn.Close()
	}

	// Hub 里不能残留任何该场次的订阅者，否则每次广播都会遍历死客户端
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && sessionClientCount(hub, "race-1") != 0 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, sessionClientCount(hub, "race-1"))

	// 登记恢复后同一个场次可以正常订阅并收到广播
	registry.setErr = nil
	conn, err = dialWS(t, server.URL, "race-1", "u1")
	require.NoError(t, err)
	defer conn.Close()

	deadline = time.Now().Add(time.Second)
	for time.Now().Before(deadline) && sessionClientCount(hub, "race-1") == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, sessionClientCount(hub, "race-1"))

	hub.Broadcast("race-1", []byte("payload"))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newRegisteredClient(t, hub, "race-1", 1)
	hub.unregister <- client

	select {
	case _, open := <-client.send:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on unregister")
	}
}
