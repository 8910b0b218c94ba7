package querylog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/betting-feed-insights/internal/query-service/answer"
)

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

func TestPostgres_Record(t *testing.T) {
	db := &fakeDB{}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := NewPostgres(db).Record(context.Background(), answer.Response{
		Query:           "open markets",
		Timestamp:       ts,
		Confidence:      0.95,
		MongoScript:     "db.marketDefs.find()",
		MongoResults:    []any{1, 2},
		Outcome:         answer.OutcomeSuccess,
		ExecutionTimeMs: 40,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(db.calls) != 1 {
		t.Fatalf("calls = %d", len(db.calls))
	}
	c := db.calls[0]
	if !strings.Contains(c.query, "INSERT INTO query_log") {
		t.Errorf("query = %q", c.query)
	}
	if _, err := uuid.Parse(c.args[0].(string)); err != nil {
		t.Errorf("id %v is not a uuid", c.args[0])
	}
	want := []any{"open markets", "success", 0.95, "db.marketDefs.find()", 2, int64(40), ts}
	for i, w := range want {
		if c.args[i+1] != w {
			t.Errorf("arg %d = %v, want %v", i+1, c.args[i+1], w)
		}
	}
}

func TestPostgres_Errors(t *testing.T) {
	boom := errors.New("connection reset")
	p := NewPostgres(&fakeDB{err: boom})

	if err := p.Record(context.Background(), answer.Response{}); !errors.Is(err, boom) {
		t.Errorf("Record err = %v", err)
	}
	if err := p.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Errorf("EnsureSchema err = %v", err)
	}
}
