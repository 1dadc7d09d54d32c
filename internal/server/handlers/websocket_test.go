package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

type fakeSubscriber struct {
	mu      sync.Mutex
	subject string
	cb      nats.MsgHandler
	ready   chan struct{}
}

func (f *fakeSubscriber) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	f.subject = subject
	f.cb = cb
	f.mu.Unlock()
	close(f.ready)
	return &nats.Subscription{}, nil
}

func TestRefreshWebSocketRelaysEvents(t *testing.T) {
	sub := &fakeSubscriber{ready: make(chan struct{})}
	srv := httptest.NewServer(RefreshWebSocketHandler(sub, "restaurants.refreshed"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case <-sub.ready:
	case <-time.After(time.Second):
		t.Fatal("handler never subscribed")
	}
	if sub.subject != "restaurants.refreshed" {
		t.Errorf("subject = %q", sub.subject)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, welcome, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if !strings.Contains(string(welcome), `"welcome"`) {
		t.Errorf("unexpected first message %s", welcome)
	}

	sub.mu.Lock()
	cb := sub.cb
	sub.mu.Unlock()
	cb(&nats.Msg{Data: []byte(`{"count":3}`)})

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if string(msg) != `{"count":3}` {
		t.Errorf("unexpected event %s", msg)
	}
}

func TestRefreshWebSocketWithoutNATS(t *testing.T) {
	rec := httptest.NewRecorder()
	RefreshWebSocketHandler(nil, "restaurants.refreshed")(rec, httptest.NewRequest(http.MethodGet, "/ws/restaurants", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
