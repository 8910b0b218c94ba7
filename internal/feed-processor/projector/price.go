package projector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
	"github.com/radieske/betting-feed-insights/pkg/contracts/feed"
)

// PriceStore é o subconjunto do Store usado pelo PriceProjector
type PriceStore interface {
	LatestDefinition(ctx context.Context, marketID string) (*store.MarketDefinitionRecord, error)
	InsertPrices(ctx context.Context, recs []store.PriceUpdateRecord) (store.BulkResult, error)
}

// Broadcaster publica os preços recém gravados (ex.: Redis Pub/Sub)
type Broadcaster interface {
	PublishPrices(ctx context.Context, recs []store.PriceUpdateRecord) error
}

// PriceProjector grava um PriceUpdateRecord por delta, enriquecido com o nome do
// runner e o evento da definição mais recente do mercado.
type PriceProjector struct {
	log         *zap.Logger
	store       PriceStore
	cache       DefinitionCache // opcional
	broadcaster Broadcaster     // opcional
	hooks       Hooks
}

// NewPriceProjector cria o projetor; cache e broadcaster podem ser nil
func NewPriceProjector(log *zap.Logger, s PriceStore, c DefinitionCache, b Broadcaster, h Hooks) *PriceProjector {
	return &PriceProjector{log: logger.OrNop(log), store: s, cache: c, broadcaster: b, hooks: h}
}

// FallbackRunnerName é usado quando não há definição ou o id não está no roster
func FallbackRunnerName(runnerID int64) string {
	return "Runner_" + strconv.FormatInt(runnerID, 10)
}

// Project grava o lote inteiro num único insert. Linhas repetidas
// (changeId, runnerId) são ignoradas e o restante é gravado.
func (p *PriceProjector) Project(ctx context.Context, deltas []feed.RunnerDelta, prov Provenance) error {
	if len(deltas) == 0 {
		return nil
	}

	def := p.latestDefinition(ctx, prov.MarketID)
	recs := BuildPriceRecords(deltas, def, prov)

	res, err := p.store.InsertPrices(ctx, recs)
	if err != nil {
		p.hooks.failed(KindPrice)
		return fmt.Errorf("persist prices: %w", err)
	}
	p.hooks.inserted(KindPrice, res.Inserted)
	p.hooks.duplicate(KindPrice, len(res.Duplicates))

	if p.broadcaster != nil && res.Inserted > 0 {
		fresh := withoutIndexes(recs, res.Duplicates)
		if err := p.broadcaster.PublishPrices(ctx, fresh); err != nil {
			p.hooks.failed("broadcast")
			p.log.Warn("price broadcast failed", zap.String("market_id", prov.MarketID), zap.Error(err))
		}
	}
	return nil
}

// latestDefinition consulta o cache e depois o banco; ausência ou falha
// resultam em nil (nomes sintetizados, evento vazio).
func (p *PriceProjector) latestDefinition(ctx context.Context, marketID string) *store.MarketDefinitionRecord {
	if p.cache != nil {
		def, ok, err := p.cache.Get(ctx, marketID)
		if err != nil {
			p.hooks.failed("cache")
			p.log.Warn("definition cache get failed", zap.String("market_id", marketID), zap.Error(err))
		} else if ok {
			return def
		}
	}

	def, err := p.store.LatestDefinition(ctx, marketID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		p.log.Warn("latest definition lookup failed", zap.String("market_id", marketID), zap.Error(err))
		return nil
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, def); err != nil {
			p.log.Warn("definition cache put failed", zap.String("market_id", marketID), zap.Error(err))
		}
	}
	return def
}

// BuildPriceRecords monta um registro por delta; def pode ser nil
func BuildPriceRecords(deltas []feed.RunnerDelta, def *store.MarketDefinitionRecord, prov Provenance) []store.PriceUpdateRecord {
	var eventID, eventName string
	if def != nil {
		eventID, eventName = def.EventID, def.EventName
	}

	changeID := prov.RecordChangeID()
	out := make([]store.PriceUpdateRecord, 0, len(deltas))
	for _, d := range deltas {
		name := FallbackRunnerName(d.RunnerID)
		if def != nil {
			if n, ok := def.RunnerName(d.RunnerID); ok {
				name = n
			}
		}
		out = append(out, store.PriceUpdateRecord{
			MarketID:        prov.MarketID,
			RunnerID:        d.RunnerID,
			RunnerName:      name,
			LastTradedPrice: d.LastTradedPrice,
			Timestamp:       prov.Timestamp,
			ChangeID:        changeID,
			PublishTime:     prov.PublishTime,
			EventID:         eventID,
			EventName:       eventName,
		})
	}
	return out
}

func withoutIndexes(recs []store.PriceUpdateRecord, skip []int) []store.PriceUpdateRecord {
	if len(skip) == 0 {
		return recs
	}
	drop := make(map[int]struct{}, len(skip))
	for _, i := range skip {
		drop[i] = struct{}{}
	}
	out := make([]store.PriceUpdateRecord, 0, len(recs)-len(skip))
	for i, r := range recs {
		if _, ok := drop[i]; !ok {
			out = append(out, r)
		}
	}
	return out
}
