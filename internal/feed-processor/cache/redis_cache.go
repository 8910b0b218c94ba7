package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

// DefinitionCache guarda a definição mais recente de cada mercado no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type DefinitionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewDefinitionCache cria uma instância de cache Redis com TTL configurável
func NewDefinitionCache(c *redis.Client, ttl time.Duration) *DefinitionCache {
	return &DefinitionCache{Client: c, TTL: ttl}
}

// Key gera a chave Redis da definição atual de um mercado
func Key(marketID string) string { return "market:definition:" + marketID }

// Get retorna (nil, false, nil) quando a chave não existe
func (c *DefinitionCache) Get(ctx context.Context, marketID string) (*store.MarketDefinitionRecord, bool, error) {
	b, err := c.Client.Get(ctx, Key(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rec store.MarketDefinitionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// Put só substitui o valor em cache se rec não for mais antigo que ele.
// A comparação e a escrita rodam numa transação WATCH para não regredir o
// snapshot quando duas ingestões concorrentes gravam o mesmo mercado.
func (c *DefinitionCache) Put(ctx context.Context, rec *store.MarketDefinitionRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := Key(rec.MarketID)

	return c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && !Newer(rec, cur) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, c.TTL)
			return nil
		})
		return err
	}, key)
}

// Newer informa se rec é pelo menos tão recente quanto o JSON em cache.
// Valor em cache ilegível é tratado como mais antigo.
func Newer(rec *store.MarketDefinitionRecord, cached []byte) bool {
	var cur struct {
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(cached, &cur); err != nil {
		return true
	}
	return !rec.Timestamp.Before(cur.Timestamp)
}
