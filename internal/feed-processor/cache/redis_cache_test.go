package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

func TestKey(t *testing.T) {
	if got := Key("1.234"); got != "market:definition:1.234" {
		t.Errorf("Key = %s", got)
	}
}

func TestNewer(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000).UTC()
	cached, _ := json.Marshal(&store.MarketDefinitionRecord{MarketID: "1.1", Timestamp: base})

	tests := []struct {
		name   string
		ts     time.Time
		cached []byte
		want   bool
	}{
		{"newer", base.Add(time.Second), cached, true},
		{"same instant", base, cached, true},
		{"older", base.Add(-time.Second), cached, false},
		{"corrupt cache", base.Add(-time.Hour), []byte("{"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &store.MarketDefinitionRecord{MarketID: "1.1", Timestamp: tt.ts}
			if got := Newer(rec, tt.cached); got != tt.want {
				t.Errorf("Newer = %v, want %v", got, tt.want)
			}
		})
	}
}
