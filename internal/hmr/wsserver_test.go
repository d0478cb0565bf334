package hmr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, s *WebSocketServer) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestWebSocketServer_GreetsAndBroadcasts(t *testing.T) {
	s := NewWebSocketServer(nil)
	conn, cleanup := dialTestServer(t, s)
	defer cleanup()

	if msg := readMessage(t, conn); msg.Type != MessageConnected {
		t.Fatalf("Expected connected greeting, got %q", msg.Type)
	}

	s.Send(Message{Type: MessageUpdate, Updates: []Update{{
		Type:         "js-update",
		Timestamp:    42,
		Path:         "/src/app.js",
		AcceptedPath: "/src/app.js",
	}}})

	msg := readMessage(t, conn)
	if msg.Type != MessageUpdate || len(msg.Updates) != 1 {
		t.Fatalf("Expected update broadcast, got %+v", msg)
	}
	if msg.Updates[0].Path != "/src/app.js" || msg.Updates[0].Timestamp != 42 {
		t.Errorf("Unexpected update record %+v", msg.Updates[0])
	}
}

func TestWebSocketServer_ConcurrentConnectAndBroadcast(t *testing.T) {
	s := NewWebSocketServer(nil)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// The greeting is written on the upgrade goroutine while broadcasts
	// keep flowing from another; the connection allows one writer at a
	// time, so both frames must still arrive intact.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Send(Message{Type: MessageFullReload})
			}
		}
	}()

	for i := 0; i < 10; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		msg := readMessage(t, conn)
		if msg.Type != MessageConnected && msg.Type != MessageFullReload {
			t.Fatalf("Unexpected first frame %q", msg.Type)
		}
		conn.Close()
	}

	close(stop)
	wg.Wait()
}

func TestWebSocketServer_ClientCount(t *testing.T) {
	s := NewWebSocketServer(nil)

	conn, cleanup := dialTestServer(t, s)
	defer cleanup()
	readMessage(t, conn)

	if got := s.ClientCount(); got != 1 {
		t.Fatalf("Expected 1 client, got %d", got)
	}

	conn.Close()
	deadline := time.Now().Add(3 * time.Second)
	for s.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected client count to drop after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
