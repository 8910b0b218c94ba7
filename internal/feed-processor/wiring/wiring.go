// Package wiring monta o pipeline de ingestão usado pelo CLI de arquivos, pelo
// worker Kafka e pela API, ligando projetores, roteador e métricas.
package wiring

import (
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/projector"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/router"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

// Deps são as dependências do pipeline; só Store é obrigatório
type Deps struct {
	Log         *zap.Logger
	Store       store.Store
	Cache       projector.DefinitionCache
	Broadcaster projector.Broadcaster
	Metrics     *metrics.Ingest
	DeadLetter  ingest.DeadLetterFunc
}

// NewPipeline liga parser -> roteador -> projetores -> store
func NewPipeline(d Deps) *ingest.Pipeline {
	hooks := projector.Hooks{}
	if m := d.Metrics; m != nil {
		hooks = projector.Hooks{
			OnInserted:  func(kind string, n int) { m.Records.WithLabelValues(kind).Add(float64(n)) },
			OnDuplicate: func(kind string, n int) { m.Duplicates.WithLabelValues(kind).Add(float64(n)) },
			OnError:     func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
		}
	}

	defs := projector.NewDefinitionProjector(d.Log, d.Store, d.Cache, hooks)
	prices := projector.NewPriceProjector(d.Log, d.Store, d.Cache, d.Broadcaster, hooks)

	p := ingest.NewPipeline(d.Log, router.New(defs, prices), d.DeadLetter)
	if m := d.Metrics; m != nil {
		p.OnLine = func(result string) { m.Lines.WithLabelValues(result).Inc() }
		p.OnError = func(stage string) { m.Errors.WithLabelValues(stage).Inc() }
	}
	return p
}
