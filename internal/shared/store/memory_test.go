package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_InsertDefinitionDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := &MarketDefinitionRecord{MarketID: "1.1", ChangeID: "100_1.1", Status: "OPEN"}

	if err := s.InsertDefinition(ctx, rec); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := s.InsertDefinition(ctx, rec); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second insert err = %v, want ErrDuplicate", err)
	}
	if got := len(s.Definitions()); got != 1 {
		t.Errorf("definitions = %d, want 1", got)
	}
}

func TestMemoryStore_InsertPricesPartialDuplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := []PriceUpdateRecord{
		{ChangeID: "c1_1.1", RunnerID: 1},
		{ChangeID: "c1_1.1", RunnerID: 2},
	}
	if res, err := s.InsertPrices(ctx, first); err != nil || res.Inserted != 2 {
		t.Fatalf("first batch = %+v, %v", res, err)
	}

	second := []PriceUpdateRecord{
		{ChangeID: "c1_1.1", RunnerID: 2},
		{ChangeID: "c1_1.1", RunnerID: 3},
		{ChangeID: "c1_1.1", RunnerID: 3},
	}
	res, err := s.InsertPrices(ctx, second)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if res.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", res.Inserted)
	}
	if len(res.Duplicates) != 2 || res.Duplicates[0] != 0 || res.Duplicates[1] != 2 {
		t.Errorf("Duplicates = %v, want [0 2]", res.Duplicates)
	}
	if got := len(s.Prices()); got != 3 {
		t.Errorf("prices = %d, want 3", got)
	}
}

func TestMemoryStore_LatestDefinition(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	_ = s.InsertDefinition(ctx, &MarketDefinitionRecord{MarketID: "1.1", ChangeID: "b", Timestamp: base.Add(time.Minute), Status: "SUSPENDED"})
	_ = s.InsertDefinition(ctx, &MarketDefinitionRecord{MarketID: "1.1", ChangeID: "a", Timestamp: base, Status: "OPEN"})
	_ = s.InsertDefinition(ctx, &MarketDefinitionRecord{MarketID: "1.2", ChangeID: "c", Timestamp: base.Add(time.Hour), Status: "CLOSED"})

	got, err := s.LatestDefinition(ctx, "1.1")
	if err != nil {
		t.Fatalf("LatestDefinition: %v", err)
	}
	if got.Status != "SUSPENDED" {
		t.Errorf("Status = %s, want SUSPENDED", got.Status)
	}

	if _, err := s.LatestDefinition(ctx, "9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing market err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_EventSummaryUsesLatestStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	statuses := []MarketStatusRecord{
		{MarketID: "1.1", EventID: "E1", EventName: "A v B", Status: "OPEN", ChangeID: "1", Timestamp: base},
		{MarketID: "1.1", EventID: "E1", EventName: "A v B", Status: "CLOSED", ChangeID: "2", Timestamp: base.Add(2 * time.Minute)},
		{MarketID: "1.2", EventID: "E1", EventName: "A v B", Status: "SUSPENDED", ChangeID: "3", Timestamp: base.Add(time.Minute)},
		{MarketID: "1.3", EventID: "E2", EventName: "C v D", Status: "OPEN", ChangeID: "4", Timestamp: base},
	}
	for i := range statuses {
		if err := s.InsertStatus(ctx, &statuses[i]); err != nil {
			t.Fatalf("InsertStatus: %v", err)
		}
	}
	_, _ = s.InsertPrices(ctx, []PriceUpdateRecord{
		{ChangeID: "1", RunnerID: 1, EventID: "E1"},
		{ChangeID: "1", RunnerID: 2, EventID: "E1"},
		{ChangeID: "4", RunnerID: 1, EventID: "E2"},
	})

	sum, err := s.EventSummary(ctx, "E1")
	if err != nil {
		t.Fatalf("EventSummary: %v", err)
	}
	if sum.Markets != 2 {
		t.Errorf("Markets = %d, want 2", sum.Markets)
	}
	if sum.StatusCounts["CLOSED"] != 1 || sum.StatusCounts["SUSPENDED"] != 1 || sum.StatusCounts["OPEN"] != 0 {
		t.Errorf("StatusCounts = %v", sum.StatusCounts)
	}
	if sum.PriceUpdates != 2 {
		t.Errorf("PriceUpdates = %d, want 2", sum.PriceUpdates)
	}
	if !sum.FirstSeen.Equal(base) || !sum.LastSeen.Equal(base.Add(2*time.Minute)) {
		t.Errorf("FirstSeen/LastSeen = %v/%v", sum.FirstSeen, sum.LastSeen)
	}
	if sum.EventName != "A v B" {
		t.Errorf("EventName = %q", sum.EventName)
	}

	if _, err := s.EventSummary(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown event err = %v, want ErrNotFound", err)
	}
}
