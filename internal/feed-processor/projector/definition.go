package projector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
	"github.com/radieske/betting-feed-insights/pkg/contracts/feed"
)

// DefinitionStore é o subconjunto do Store usado pelo DefinitionProjector
type DefinitionStore interface {
	InsertDefinition(ctx context.Context, rec *store.MarketDefinitionRecord) error
	InsertStatus(ctx context.Context, rec *store.MarketStatusRecord) error
}

// DefinitionProjector grava o snapshot completo e a trilha de status do mercado.
type DefinitionProjector struct {
	log   *zap.Logger
	store DefinitionStore
	cache DefinitionCache // opcional
	hooks Hooks
}

// NewDefinitionProjector cria o projetor; cache pode ser nil
func NewDefinitionProjector(log *zap.Logger, s DefinitionStore, c DefinitionCache, h Hooks) *DefinitionProjector {
	return &DefinitionProjector{log: logger.OrNop(log), store: s, cache: c, hooks: h}
}

// Project insere MarketDefinitionRecord e MarketStatusRecord.
// Chave repetida é no-op: a mesma linha pode ser reprocessada após um restart.
func (p *DefinitionProjector) Project(ctx context.Context, def *feed.MarketDefinition, prov Provenance) error {
	rec := BuildDefinitionRecord(def, prov)

	err := p.store.InsertDefinition(ctx, rec)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		p.hooks.duplicate(KindDefinition, 1)
		p.log.Debug("definition already stored", zap.String("change_id", rec.ChangeID))
	case err != nil:
		p.hooks.failed(KindDefinition)
		return fmt.Errorf("persist definition: %w", err)
	default:
		p.hooks.inserted(KindDefinition, 1)
	}

	// status é gravado mesmo quando a definição já existia, cobrindo o caso
	// de uma queda entre os dois inserts
	st := BuildStatusRecord(rec)
	err = p.store.InsertStatus(ctx, st)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		p.hooks.duplicate(KindStatus, 1)
	case err != nil:
		p.hooks.failed(KindStatus)
		return fmt.Errorf("persist status: %w", err)
	default:
		p.hooks.inserted(KindStatus, 1)
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, rec); err != nil {
			p.hooks.failed("cache")
			p.log.Warn("definition cache put failed", zap.String("market_id", rec.MarketID), zap.Error(err))
		}
	}
	return nil
}

// BuildDefinitionRecord copia todos os campos da definição e adiciona a proveniência
func BuildDefinitionRecord(def *feed.MarketDefinition, prov Provenance) *store.MarketDefinitionRecord {
	runners := make([]store.RunnerRecord, 0, len(def.Runners))
	for _, r := range def.Runners {
		runners = append(runners, store.RunnerRecord{
			ID:               r.ID,
			Name:             r.Name,
			Status:           r.Status,
			SortPriority:     r.SortPriority,
			AdjustmentFactor: r.AdjustmentFactor,
		})
	}

	return &store.MarketDefinitionRecord{
		MarketID:    prov.MarketID,
		Timestamp:   prov.Timestamp,
		ChangeID:    prov.RecordChangeID(),
		PublishTime: prov.PublishTime,

		Status:                def.Status,
		Name:                  def.Name,
		EventID:               def.EventID,
		EventName:             def.EventName,
		EventTypeID:           def.EventTypeID,
		MarketType:            def.MarketType,
		BettingType:           def.BettingType,
		NumberOfWinners:       def.NumberOfWinners,
		NumberOfActiveRunners: def.NumberOfActiveRunners,
		BetDelay:              def.BetDelay,
		Version:               def.Version,
		InPlay:                def.InPlay,
		TurnInPlayEnabled:     def.TurnInPlayEnabled,
		BspMarket:             def.BspMarket,
		Complete:              def.Complete,
		MarketTime:            def.MarketTime,
		SuspendTime:           def.SuspendTime,
		OpenDate:              def.OpenDate,
		SettledTime:           def.SettledTime,
		Venue:                 def.Venue,
		CountryCode:           def.CountryCode,
		Timezone:              def.Timezone,
		Runners:               runners,
	}
}

// BuildStatusRecord projeta os campos relevantes para transições de status
func BuildStatusRecord(rec *store.MarketDefinitionRecord) *store.MarketStatusRecord {
	active := rec.NumberOfActiveRunners
	if active == 0 {
		for _, r := range rec.Runners {
			if r.Status == feed.RunnerActive {
				active++
			}
		}
	}
	return &store.MarketStatusRecord{
		MarketID:          rec.MarketID,
		Status:            rec.Status,
		Timestamp:         rec.Timestamp,
		ChangeID:          rec.ChangeID,
		EventID:           rec.EventID,
		EventName:         rec.EventName,
		ActiveRunnerCount: active,
	}
}
