package wiring

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

const feedLines = `{"op":"mcm","clk":"100","pt":1700000000000,"mc":[{"id":"1.1","marketDefinition":{"status":"OPEN","eventId":"29","eventName":"Arsenal v Chelsea","runners":[{"id":10,"name":"Arsenal","status":"ACTIVE"},{"id":20,"name":"Chelsea","status":"ACTIVE"}]},"rc":[{"id":10,"ltp":2.1},{"id":20,"ltp":3.4}]}]}
{"op":"mcm","clk":"101","pt":1700000001000,"mc":[{"id":"1.1","rc":[{"id":10,"ltp":2.2}]}]}
not json
`

func TestNewPipeline_MetricsAndDeadLetter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewIngest(reg)
	mem := store.NewMemoryStore()

	var dead []string
	p := NewPipeline(Deps{
		Store:   mem,
		Metrics: m,
		DeadLetter: func(_ context.Context, line []byte, _ error) {
			dead = append(dead, string(line))
		},
	})

	// duas passadas: a segunda só encontra duplicatas
	for i := 0; i < 2; i++ {
		st, err := p.Run(context.Background(), strings.NewReader(feedLines))
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if st.Processed != 2 || st.Errored != 1 {
			t.Fatalf("run %d: stats = %+v", i, st)
		}
	}

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"processed lines", m.Lines.WithLabelValues("processed"), 4},
		{"errored lines", m.Lines.WithLabelValues("errored"), 2},
		{"definitions", m.Records.WithLabelValues("definition"), 1},
		{"statuses", m.Records.WithLabelValues("status"), 1},
		{"prices", m.Records.WithLabelValues("price"), 3},
		{"duplicate prices", m.Duplicates.WithLabelValues("price"), 3},
		{"duplicate definitions", m.Duplicates.WithLabelValues("definition"), 1},
		{"parse errors", m.Errors.WithLabelValues("parse"), 2},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}

	if len(dead) != 2 || dead[0] != "not json" {
		t.Errorf("dead letters = %q", dead)
	}
	if got := len(mem.Prices()); got != 3 {
		t.Errorf("stored prices = %d, want 3", got)
	}
	for _, rec := range mem.Prices() {
		if rec.EventID != "29" || strings.HasPrefix(rec.RunnerName, "Runner_") {
			t.Errorf("price not enriched: %+v", rec)
		}
	}
}
