package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// newTestWSServer поднимает echo-заглушку, чтобы получить настоящие
// websocket-соединения для менеджера.
func newTestWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialTestWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConnectionManager_ReconnectKeepsNewClient(t *testing.T) {
	srv := newTestWSServer(t)
	manager := NewConnectionManager()

	oldClient := &WSClient{ProfileID: "profile-1", Conn: dialTestWS(t, srv), send: make(chan []byte, 1)}
	newClient := &WSClient{ProfileID: "profile-1", Conn: dialTestWS(t, srv), send: make(chan []byte, 1)}

	manager.RegisterClient(oldClient)
	manager.RegisterClient(newClient)

	// readPump старого соединения срабатывает уже после замены:
	// новое соединение должно остаться в карте
	manager.UnregisterClient(oldClient)

	require.Eventually(t, func() bool {
		return manager.SendToProfile("profile-1", []byte(`{"status":"generating"}`))
	}, time.Second, 10*time.Millisecond, "new connection must survive the stale unregister")

	select {
	case msg := <-newClient.send:
		require.JSONEq(t, `{"status":"generating"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message was not queued for the new client")
	}

	// Дерегистрация актуального соединения удаляет его по-настоящему
	manager.UnregisterClient(newClient)
	require.Eventually(t, func() bool {
		manager.mu.RLock()
		defer manager.mu.RUnlock()
		_, ok := manager.clients["profile-1"]
		return !ok
	}, time.Second, 10*time.Millisecond)
}
