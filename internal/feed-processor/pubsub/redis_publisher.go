package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/betting-feed-insights/internal/shared/store"
	"github.com/radieske/betting-feed-insights/pkg/contracts/events"
)

type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

// PublishPrices envia um evento por preço num único pipeline
func (b *RedisBroadcaster) PublishPrices(ctx context.Context, recs []store.PriceUpdateRecord) error {
	if len(recs) == 0 {
		return nil
	}
	payloads, err := Encode(recs)
	if err != nil {
		return err
	}
	_, err = b.r.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, msg := range payloads {
			p.Publish(ctx, b.channel, msg)
		}
		return nil
	})
	return err
}

// Encode converte os registros no contrato events.PriceUpdate
func Encode(recs []store.PriceUpdateRecord) ([][]byte, error) {
	out := make([][]byte, 0, len(recs))
	for _, r := range recs {
		b, err := json.Marshal(events.PriceUpdate{
			MarketID:        r.MarketID,
			RunnerID:        r.RunnerID,
			RunnerName:      r.RunnerName,
			LastTradedPrice: r.LastTradedPrice,
			EventID:         r.EventID,
			EventName:       r.EventName,
			Timestamp:       r.Timestamp,
			ChangeID:        r.ChangeID,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
