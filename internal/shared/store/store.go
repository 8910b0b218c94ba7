// Package store define a interface de persistência do ledger de mercado.
// Implementações: MongoDB (fonte da verdade) e memória (testes e dry-run).
// O ledger é append-only: a unicidade das chaves é garantida pelo banco,
// nunca por coordenação em memória.
package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicate indica que a chave de identidade do registro já existe
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotFound indica ausência de documento
	ErrNotFound = errors.New("store: not found")
)

// Store é o conjunto de operações que os projetores e a camada de análise usam.
type Store interface {
	// InsertDefinition retorna ErrDuplicate se changeId já existir.
	InsertDefinition(ctx context.Context, rec *MarketDefinitionRecord) error

	// InsertStatus retorna ErrDuplicate se changeId já existir.
	InsertStatus(ctx context.Context, rec *MarketStatusRecord) error

	// InsertPrices insere o lote sem ordem; linhas duplicadas são puladas e o
	// restante é gravado. Só retorna erro para falhas que não sejam de duplicidade.
	InsertPrices(ctx context.Context, recs []PriceUpdateRecord) (BulkResult, error)

	// LatestDefinition retorna a definição mais recente (por timestamp) do mercado.
	LatestDefinition(ctx context.Context, marketID string) (*MarketDefinitionRecord, error)

	// EventSummary agrega mercados, status e preços de um evento.
	EventSummary(ctx context.Context, eventID string) (*EventSummary, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
