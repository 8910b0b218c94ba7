package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/pkg/contracts/events"
)

// Broadcaster é implementado por Hub
type Broadcaster interface {
	Broadcast(update events.PriceUpdate)
}

// StartRedisSubscriber escuta o canal de preços em uma goroutine e repassa cada
// atualização ao hub até ctx ser cancelado
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub Broadcaster) {
	sub := r.Subscribe(ctx, channel)
	go func() {
		defer sub.Close()
		Forward(ctx, log, sub.Channel(), hub)
	}()
}

// Forward desserializa mensagens do Pub/Sub e chama hub.Broadcast
func Forward(ctx context.Context, log *zap.Logger, ch <-chan *redis.Message, hub Broadcaster) {
	log = logger.OrNop(log)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			var upd events.PriceUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
				log.Warn("price subscriber unmarshal error", zap.Error(err))
				continue
			}
			hub.Broadcast(upd)
		}
	}
}
