package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultStreamerURL = "wss://streamer.tastytrade.com"
	heartbeatInterval  = 15 * time.Second
)

// StreamerMessage is one raw event from the account streamer. The tracker
// only inspects the action/type envelope; payloads are forwarded as-is.
type StreamerMessage struct {
	Type    string          `json:"type"`
	Action  string          `json:"action,omitempty"`
	Status  string          `json:"status,omitempty"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// AccountStreamer keeps a websocket subscription to account-level events
// (fills, balance updates) so a sync can be triggered without polling.
type AccountStreamer struct {
	url          string
	sessionToken string
	conn         *websocket.Conn
}

// NewAccountStreamer builds a streamer. url empty means the production
// streamer endpoint.
func NewAccountStreamer(url, sessionToken string) *AccountStreamer {
	if url == "" {
		url = defaultStreamerURL
	}
	return &AccountStreamer{url: url, sessionToken: sessionToken}
}

// Connect dials the streamer and subscribes to the given accounts.
func (s *AccountStreamer) Connect(ctx context.Context, accountNumbers []string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return fmt.Errorf("streamer dial failed: %w", err)
	}
	s.conn = conn

	subscribe := map[string]any{
		"action":     "connect",
		"value":      accountNumbers,
		"auth-token": s.sessionToken,
		"request-id": 1,
		"source":     userAgent,
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		_ = conn.Close()
		s.conn = nil
		return fmt.Errorf("streamer subscribe failed: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"connector": "tastytrade_streamer",
		"accounts":  len(accountNumbers),
	}).Info("Account streamer connected")

	return nil
}

// Run pumps messages into the handler until the context is canceled or the
// connection drops. A heartbeat is sent on a fixed interval to keep the
// subscription alive.
func (s *AccountStreamer) Run(ctx context.Context, handler func(StreamerMessage)) error {
	if s.conn == nil {
		return fmt.Errorf("streamer not connected")
	}

	messages := make(chan StreamerMessage)
	errs := make(chan error, 1)

	go func() {
		defer close(messages)
		for {
			var msg StreamerMessage
			if err := s.conn.ReadJSON(&msg); err != nil {
				errs <- err
				return
			}
			messages <- msg
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Close()

		case err := <-errs:
			return fmt.Errorf("streamer read failed: %w", err)

		case <-ticker.C:
			beat := map[string]any{
				"action":     "heartbeat",
				"auth-token": s.sessionToken,
			}
			if err := s.conn.WriteJSON(beat); err != nil {
				return fmt.Errorf("streamer heartbeat failed: %w", err)
			}

		case msg, ok := <-messages:
			if !ok {
				// Reader exited; its error arrives on errs.
				messages = nil
				continue
			}
			handler(msg)
		}
	}
}

// Close shuts the websocket down.
func (s *AccountStreamer) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
