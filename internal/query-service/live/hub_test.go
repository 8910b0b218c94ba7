package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/betting-feed-insights/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastByEventAndMarket(t *testing.T) {
	hub := NewHub(nil, func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	byEvent := dial(t, srv)
	byMarket := dial(t, srv)
	both := dial(t, srv)

	_ = byEvent.WriteJSON(ClientMsg{Type: "subscribe", EventID: "29"})
	_ = byMarket.WriteJSON(ClientMsg{Type: "subscribe", MarketID: "1.23"})
	_ = both.WriteJSON(ClientMsg{Type: "subscribe", EventID: "29"})
	_ = both.WriteJSON(ClientMsg{Type: "subscribe", MarketID: "1.23"})

	waitFor(t, func() bool {
		return hub.Subscribers("29", "") == 2 && hub.Subscribers("", "1.23") == 2
	})

	sent := 0
	hub.OnSent = func() { sent++ }
	hub.Broadcast(events.PriceUpdate{MarketID: "1.23", EventID: "29", RunnerID: 10, LastTradedPrice: 2.5})

	for name, conn := range map[string]*websocket.Conn{"event": byEvent, "market": byMarket, "both": both} {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		var msg struct {
			Type    string             `json:"type"`
			Payload events.PriceUpdate `json:"payload"`
		}
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "price" || msg.Payload.RunnerID != 10 {
			t.Errorf("%s: msg = %+v", name, msg)
		}
	}
	if sent != 3 {
		t.Errorf("sent = %d, want 3 (one per client)", sent)
	}
}

func TestHub_UnsubscribeAndPing(t *testing.T) {
	hub := NewHub(nil, func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	_ = conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: "29"})
	waitFor(t, func() bool { return hub.Subscribers("29", "") == 1 })

	_ = conn.WriteJSON(ClientMsg{Type: "unsubscribe", EventID: "29"})
	waitFor(t, func() bool { return hub.Subscribers("29", "") == 0 })

	_ = conn.WriteJSON(ClientMsg{Type: "ping"})
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"type":"pong"}` {
		t.Errorf("pong = %s", b)
	}
}

type recordingHub struct{ got []events.PriceUpdate }

func (r *recordingHub) Broadcast(u events.PriceUpdate) { r.got = append(r.got, u) }

func TestForward(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	ch <- &redis.Message{Payload: `{"marketId":"1.23","eventId":"29","runnerId":10,"lastTradedPrice":2.5}`}
	ch <- &redis.Message{Payload: `not json`}
	ch <- &redis.Message{Payload: `{"marketId":"1.24","runnerId":11}`}
	close(ch)

	hub := &recordingHub{}
	Forward(context.Background(), nil, ch, hub)

	if len(hub.got) != 2 || hub.got[0].MarketID != "1.23" || hub.got[1].RunnerID != 11 {
		t.Errorf("forwarded = %+v", hub.got)
	}
}
