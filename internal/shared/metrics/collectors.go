package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ingest agrupa os coletores do pipeline de ingestão
type Ingest struct {
	Lines      *prometheus.CounterVec // result=processed|errored
	Records    *prometheus.CounterVec // kind=definition|status|price
	Duplicates *prometheus.CounterVec // kind=...
	Errors     *prometheus.CounterVec // stage=parse|definition|status|price|cache|broadcast|dlq
}

// NewIngest cria e registra os coletores de ingestão
func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_ingest_lines_total", Help: "linhas do feed por resultado",
		}, []string{"result"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_ingest_records_inserted_total", Help: "registros gravados no ledger",
		}, []string{"kind"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_ingest_duplicates_total", Help: "registros ignorados por chave repetida",
		}, []string{"kind"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_ingest_errors_total", Help: "erros por estágio",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.Lines, m.Records, m.Duplicates, m.Errors)
	return m
}

// Query agrupa os coletores do pipeline de consultas
type Query struct {
	Outcomes  *prometheus.CounterVec // outcome=no_script|no_backend|execution_error|empty_result|success
	Execution prometheus.Histogram
	LLMErrors *prometheus.CounterVec // stage=translate|summarize
	LiveSent  prometheus.Counter
}

// NewQuery cria e registra os coletores de consultas
func NewQuery(reg prometheus.Registerer) *Query {
	m := &Query{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_responses_total", Help: "respostas por desfecho",
		}, []string{"outcome"}),
		Execution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "query_script_execution_seconds",
			Help:    "tempo de execução de scripts no shell do banco",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		LLMErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_llm_errors_total", Help: "falhas do backend de linguagem",
		}, []string{"stage"}),
		LiveSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "query_live_messages_sent_total", Help: "preços enviados aos clientes WebSocket",
		}),
	}
	reg.MustRegister(m.Outcomes, m.Execution, m.LLMErrors, m.LiveSent)
	return m
}
