// Package projector deriva os registros persistidos (definição, status, preço)
// a partir do payload transitório de uma mudança de mercado.
package projector

import (
	"context"
	"time"

	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

// Tipos de registro usados em métricas e logs
const (
	KindDefinition = "definition"
	KindStatus     = "status"
	KindPrice      = "price"
)

// Provenance identifica a origem de uma mudança: mercado, instante e token do feed.
type Provenance struct {
	MarketID    string
	Timestamp   time.Time
	ChangeID    string // clk da mensagem, ainda sem o marketId
	PublishTime int64
}

// RecordChangeID torna o token do feed único globalmente combinando-o com o mercado.
func (p Provenance) RecordChangeID() string {
	return p.ChangeID + "_" + p.MarketID
}

// DefinitionCache guarda a definição mais recente por mercado para o lookup de
// nomes do PriceProjector. É enriquecimento: falhas nunca bloqueiam a gravação.
type DefinitionCache interface {
	Get(ctx context.Context, marketID string) (*store.MarketDefinitionRecord, bool, error)
	Put(ctx context.Context, rec *store.MarketDefinitionRecord) error
}

// Hooks são callbacks de métricas; todos opcionais.
type Hooks struct {
	OnInserted  func(kind string, n int)
	OnDuplicate func(kind string, n int)
	OnError     func(stage string)
}

func (h Hooks) inserted(kind string, n int) {
	if h.OnInserted != nil && n > 0 {
		h.OnInserted(kind, n)
	}
}

func (h Hooks) duplicate(kind string, n int) {
	if h.OnDuplicate != nil && n > 0 {
		h.OnDuplicate(kind, n)
	}
}

func (h Hooks) failed(stage string) {
	if h.OnError != nil {
		h.OnError(stage)
	}
}
