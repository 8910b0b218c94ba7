package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implementa Store com mapas em memória. Usado em testes e no
// modo dry-run da ingestão; reproduz as regras de unicidade dos índices do Mongo.
type MemoryStore struct {
	mu       sync.RWMutex
	defs     []MarketDefinitionRecord
	statuses []MarketStatusRecord
	prices   []PriceUpdateRecord

	defKeys    map[string]struct{}
	statusKeys map[string]struct{}
	priceKeys  map[string]struct{}
}

// NewMemoryStore cria um store vazio
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		defKeys:    make(map[string]struct{}),
		statusKeys: make(map[string]struct{}),
		priceKeys:  make(map[string]struct{}),
	}
}

func priceKey(changeID string, runnerID int64) string {
	return fmt.Sprintf("%s|%d", changeID, runnerID)
}

func (s *MemoryStore) InsertDefinition(_ context.Context, rec *MarketDefinitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.defKeys[rec.ChangeID]; ok {
		return ErrDuplicate
	}
	s.defKeys[rec.ChangeID] = struct{}{}

	// copia para evitar mutação externa
	c := *rec
	c.Runners = append([]RunnerRecord(nil), rec.Runners...)
	s.defs = append(s.defs, c)
	return nil
}

func (s *MemoryStore) InsertStatus(_ context.Context, rec *MarketStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.statusKeys[rec.ChangeID]; ok {
		return ErrDuplicate
	}
	s.statusKeys[rec.ChangeID] = struct{}{}
	s.statuses = append(s.statuses, *rec)
	return nil
}

func (s *MemoryStore) InsertPrices(_ context.Context, recs []PriceUpdateRecord) (BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out BulkResult
	for i, r := range recs {
		k := priceKey(r.ChangeID, r.RunnerID)
		if _, ok := s.priceKeys[k]; ok {
			out.Duplicates = append(out.Duplicates, i)
			continue
		}
		s.priceKeys[k] = struct{}{}
		s.prices = append(s.prices, r)
		out.Inserted++
	}
	return out, nil
}

func (s *MemoryStore) LatestDefinition(_ context.Context, marketID string) (*MarketDefinitionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *MarketDefinitionRecord
	for i := range s.defs {
		d := &s.defs[i]
		if d.MarketID != marketID {
			continue
		}
		if latest == nil || !d.Timestamp.Before(latest.Timestamp) {
			latest = d
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	c := *latest
	return &c, nil
}

func (s *MemoryStore) EventSummary(_ context.Context, eventID string) (*EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMarket := make(map[string]*marketLatest)
	var order []string
	for _, st := range s.statuses {
		if st.EventID != eventID {
			continue
		}
		row, ok := byMarket[st.MarketID]
		if !ok {
			byMarket[st.MarketID] = &marketLatest{
				MarketID:  st.MarketID,
				Status:    st.Status,
				EventName: st.EventName,
				FirstSeen: st.Timestamp,
				LastSeen:  st.Timestamp,
			}
			order = append(order, st.MarketID)
			continue
		}
		if st.Timestamp.Before(row.FirstSeen) {
			row.FirstSeen = st.Timestamp
		}
		if !st.Timestamp.Before(row.LastSeen) {
			row.LastSeen = st.Timestamp
			row.Status = st.Status
			row.EventName = st.EventName
		}
	}
	if len(order) == 0 {
		return nil, ErrNotFound
	}

	rows := make([]marketLatest, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byMarket[id])
	}

	var n int64
	for _, p := range s.prices {
		if p.EventID == eventID {
			n++
		}
	}
	return foldSummary(eventID, rows, n), nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

// Definitions retorna uma cópia das definições gravadas
func (s *MemoryStore) Definitions() []MarketDefinitionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MarketDefinitionRecord(nil), s.defs...)
}

// Statuses retorna uma cópia dos status gravados
func (s *MemoryStore) Statuses() []MarketStatusRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MarketStatusRecord(nil), s.statuses...)
}

// Prices retorna uma cópia dos preços gravados
func (s *MemoryStore) Prices() []PriceUpdateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceUpdateRecord(nil), s.prices...)
}
