package router

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/projector"
	"github.com/radieske/betting-feed-insights/pkg/contracts/feed"
)

// DefinitionHandler recebe o snapshot completo de um mercado
type DefinitionHandler interface {
	Project(ctx context.Context, def *feed.MarketDefinition, prov projector.Provenance) error
}

// PriceHandler recebe os deltas de preço de um mercado
type PriceHandler interface {
	Project(ctx context.Context, deltas []feed.RunnerDelta, prov projector.Provenance) error
}

// Stats contém contadores de roteamento
type Stats struct {
	MessagesRouted     int64
	MarketChanges      int64
	DefinitionsRouted  int64
	PriceBatchesRouted int64
}

// Router distribui cada MarketChange de uma mensagem para os projetores aplicáveis.
type Router struct {
	definitions DefinitionHandler
	prices      PriceHandler

	messages    atomic.Int64
	changes     atomic.Int64
	defsRouted  atomic.Int64
	priceRouted atomic.Int64
}

// New cria o roteador
func New(defs DefinitionHandler, prices PriceHandler) *Router {
	return &Router{definitions: defs, prices: prices}
}

// Route processa as mudanças em ordem. Dentro de uma mudança a definição é
// gravada antes dos preços, para que o lookup de nomes veja o snapshot mais novo.
// O primeiro erro de persistência encerra o processamento da mensagem.
func (r *Router) Route(ctx context.Context, msg *feed.ChangeMessage) error {
	r.messages.Add(1)
	ts := time.UnixMilli(msg.PublishTime).UTC()

	for i := range msg.MarketChanges {
		mc := &msg.MarketChanges[i]
		r.changes.Add(1)

		prov := projector.Provenance{
			MarketID:    mc.MarketID,
			Timestamp:   ts,
			ChangeID:    msg.ChangeID,
			PublishTime: msg.PublishTime,
		}

		if mc.Definition != nil {
			r.defsRouted.Add(1)
			if err := r.definitions.Project(ctx, mc.Definition, prov); err != nil {
				return fmt.Errorf("market %s: %w", mc.MarketID, err)
			}
		}

		if len(mc.RunnerDeltas) > 0 {
			r.priceRouted.Add(1)
			if err := r.prices.Project(ctx, mc.RunnerDeltas, prov); err != nil {
				return fmt.Errorf("market %s: %w", mc.MarketID, err)
			}
		}
	}
	return nil
}

// Stats retorna os contadores atuais
func (r *Router) Stats() Stats {
	return Stats{
		MessagesRouted:     r.messages.Load(),
		MarketChanges:      r.changes.Load(),
		DefinitionsRouted:  r.defsRouted.Load(),
		PriceBatchesRouted: r.priceRouted.Load(),
	}
}
