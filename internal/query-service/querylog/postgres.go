package querylog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/betting-feed-insights/internal/query-service/answer"
)

// Execer é satisfeito por *sql.DB
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Postgres grava cada resposta na tabela query_log (auditoria)
type Postgres struct{ db Execer }

// NewPostgres retorna o recorder de auditoria
func NewPostgres(db Execer) *Postgres { return &Postgres{db: db} }

const schema = `
CREATE TABLE IF NOT EXISTS query_log (
	id                UUID PRIMARY KEY,
	query             TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	mongo_script      TEXT NOT NULL DEFAULT '',
	row_count         INTEGER NOT NULL DEFAULT 0,
	execution_ms      BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL
)`

// EnsureSchema cria a tabela se ainda não existir
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create query_log: %w", err)
	}
	return nil
}

// Record insere uma linha por consulta respondida
func (p *Postgres) Record(ctx context.Context, r answer.Response) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO query_log (id,query,outcome,confidence,mongo_script,row_count,execution_ms,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.NewString(), r.Query, string(r.Outcome), r.Confidence, r.MongoScript,
		len(r.MongoResults), r.ExecutionTimeMs, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert query_log: %w", err)
	}
	return nil
}
