// Package replay reproduz um arquivo de feed gravado como um stream
// WebSocket, uma linha por mensagem, para alimentar o feed-ingest-service.
package replay

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// Hub mantém os clientes conectados e faz broadcast de cada linha para todos
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[string]*clientConn
	seq     atomic.Int64

	ready     chan struct{}
	readyOnce sync.Once

	// métricas
	OnConnected    func()
	OnDisconnected func()
	OnSent         func()
}

// NewHub cria o hub aceitando qualquer origem
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     logger.OrNop(log),
		clients: make(map[string]*clientConn),
		ready:   make(chan struct{}),
	}
}

// Ready fecha quando o primeiro cliente conecta
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Clients retorna o número de conexões ativas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS registra o cliente e descarta o que ele enviar até desconectar
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &clientConn{id: strconv.FormatInt(h.seq.Add(1), 10), conn: conn}
	h.add(c)

	go func() {
		defer func() {
			h.remove(c.id)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) add(c *clientConn) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.readyOnce.Do(func() { close(h.ready) })
	if h.OnConnected != nil {
		h.OnConnected()
	}
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.OnDisconnected != nil {
		h.OnDisconnected()
	}
	h.log.Info("ws client disconnected", zap.String("client_id", id))
}

// Broadcast envia a linha crua para todos os clientes
// Clientes com escrita falha são desconectados
func (h *Hub) Broadcast(line []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, line); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
			continue
		}
		if h.OnSent != nil {
			h.OnSent()
		}
	}
}
