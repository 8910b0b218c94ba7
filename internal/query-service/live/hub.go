// Package live repassa aos clientes WebSocket os preços recém gravados pelo
// pipeline de ingestão, filtrados por evento ou por mercado.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/pkg/contracts/events"
)

// client serializa escritas: gorilla aceita um único escritor por conexão
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas
// subs: mapeia "event:<id>" / "market:<id>" para o conjunto de clientes
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}

	OnSent func() // métricas
}

// NewHub cria o Hub com política de origem customizada
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      logger.OrNop(log),
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão
// Cada cliente pode assinar vários eventos e mercados
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if key := msg.key(); key != "" {
				h.subscribe(key, c)
			}
		case "unsubscribe":
			if key := msg.key(); key != "" {
				h.unsubscribe(key, c)
			}
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	// Remove o cliente de todas as assinaturas ao desconectar
	h.mu.Lock()
	for key, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe(key string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[key]; !ok {
		h.subs[key] = make(map[*client]struct{})
	}
	h.subs[key][c] = struct{}{}
}

func (h *Hub) unsubscribe(key string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[key]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
}

// Subscribers retorna quantos clientes assinam a chave (testes e health)
func (h *Hub) Subscribers(eventID, marketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ClientMsg{EventID: eventID, MarketID: marketID}.key()])
}

// Broadcast envia o preço para quem assina o evento ou o mercado, uma vez por cliente
func (h *Hub) Broadcast(update events.PriceUpdate) {
	h.mu.RLock()
	targets := make(map[*client]struct{})
	for _, key := range []string{"event:" + update.EventID, "market:" + update.MarketID} {
		for c := range h.subs[key] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(map[string]any{"type": "price", "payload": update})
	if err != nil {
		return
	}
	for c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			continue
		}
		if h.OnSent != nil {
			h.OnSent()
		}
	}
}
