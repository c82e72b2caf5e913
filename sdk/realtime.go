package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subscription is a live realtime feed. Events arrive on Events() until
// the connection drops or Close is called, after which the channel is
// closed.
type Subscription struct {
	conn      *websocket.Conn
	events    chan *PushEvent
	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe opens the realtime websocket for the configured identity.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	if c.identityId == "" {
		return nil, ErrIdentityUnknown
	}

	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	header.Set(HeaderIdentityId, c.identityId)

	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}

	sub := &Subscription{
		conn:   conn,
		events: make(chan *PushEvent, 64),
		done:   make(chan struct{}),
	}
	go sub.readLoop()

	return sub, nil
}

// Events returns the event stream
func (s *Subscription) Events() <-chan *PushEvent {
	return s.events
}

// readLoop reads frames until the connection dies.
func (s *Subscription) readLoop() {
	defer func() {
		s.Close()
		close(s.events)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var event PushEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Skip unparseable frames.
			continue
		}

		select {
		case s.events <- &event:
		case <-s.done:
			return
		}
	}
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
