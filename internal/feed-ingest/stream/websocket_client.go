package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Publisher é implementado por publisher.KafkaPublisher
type Publisher interface {
	Publish(ctx context.Context, key string, line []byte) error
}

// WSClient consome o stream de mudanças de mercado do fornecedor e
// republica cada mensagem crua no Kafka.
type WSClient struct {
	URL       string        // endpoint WebSocket do fornecedor
	Log       *zap.Logger   // logger estruturado
	Publisher Publisher     // destino das mensagens
	Backoff   time.Duration // espera antes de reconectar (default 3s)

	OnInvalid func() // métricas
}

// InvalidKey particiona mensagens que não são JSON
const InvalidKey = "invalid"

// envelope só com o necessário para escolher a chave da mensagem
type envelope struct {
	ChangeID      string `json:"clk"`
	MarketChanges []struct {
		MarketID string `json:"id"`
	} `json:"mc"`
}

// Start conecta e escuta até ctx ser cancelado, reconectando com backoff
func (c *WSClient) Start(ctx context.Context) {
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 3 * time.Second
	}

	for {
		if ctx.Err() != nil {
			c.Log.Info("context canceled, stopping WS client")
			return
		}
		if err := c.connectAndListen(ctx); err != nil {
			c.Log.Warn("connection closed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		case <-time.After(backoff):
		}
	}
}

// connectAndListen mantém uma conexão até ela cair
func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to feed WS", zap.String("url", c.URL))

	// ReadMessage não observa ctx; fechar a conexão destrava a leitura
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		key, ok := MessageKey(message)
		if !ok {
			// segue para o tópico; o worker manda a linha para a DLQ no estágio de parse
			c.Log.Warn("invalid message", zap.Int("bytes", len(message)))
			if c.OnInvalid != nil {
				c.OnInvalid()
			}
			key = InvalidKey
		} else if key == "" {
			continue // heartbeat sem mudanças
		}

		if err := c.Publisher.Publish(ctx, key, bytes.TrimSpace(message)); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("failed to publish to Kafka", zap.Error(err))
		}
	}
}

// MessageKey devolve a chave de partição: o primeiro marketId da mensagem.
// ok=false quando não é JSON; chave vazia quando não há mudanças de mercado.
func MessageKey(message []byte) (string, bool) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return "", false
	}
	for _, mc := range env.MarketChanges {
		if mc.MarketID != "" {
			return mc.MarketID, true
		}
	}
	return "", true
}
