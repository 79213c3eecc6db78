package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Serves one websocket connection: checks the subscribe frame, replies with
// an order event, then holds the connection open.
func streamerTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var subscribe map[string]interface{}
		if err := conn.ReadJSON(&subscribe); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if subscribe["action"] != "connect" {
			t.Errorf("subscribe action = %v, want connect", subscribe["action"])
		}
		if subscribe["auth-token"] != "session-token" {
			t.Errorf("subscribe auth-token = %v", subscribe["auth-token"])
		}

		if err := conn.WriteJSON(StreamerMessage{Type: "Order", Action: "order-update"}); err != nil {
			t.Errorf("write event: %v", err)
			return
		}

		// Hold the connection until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestAccountStreamerDeliversMessages(t *testing.T) {
	srv := streamerTestServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	streamer := NewAccountStreamer(wsURL, "session-token")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := streamer.Connect(ctx, []string{"5WX01234"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	received := make(chan StreamerMessage, 1)
	done := make(chan error, 1)
	go func() {
		done <- streamer.Run(ctx, func(msg StreamerMessage) {
			select {
			case received <- msg:
			default:
			}
		})
	}()

	select {
	case msg := <-received:
		if msg.Type != "Order" || msg.Action != "order-update" {
			t.Fatalf("message = %+v", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAccountStreamerRunWithoutConnect(t *testing.T) {
	streamer := NewAccountStreamer("ws://unused", "tok")
	if err := streamer.Run(context.Background(), func(StreamerMessage) {}); err == nil {
		t.Fatal("expected error when running an unconnected streamer")
	}
}
