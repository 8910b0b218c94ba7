// Package answer monta a resposta de uma pergunta em linguagem natural:
// tradução -> sanitização -> execução -> resumo, com um único desfecho por chamada.
package answer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/query-service/executor"
	"github.com/radieske/betting-feed-insights/internal/query-service/llm"
	"github.com/radieske/betting-feed-insights/internal/query-service/sanitizer"
	"github.com/radieske/betting-feed-insights/internal/query-service/translator"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

// Translator é implementado por translator.Translator
type Translator interface {
	Translate(ctx context.Context, query string) (translator.Translation, error)
}

// ScriptRunner é implementado por executor.Executor
type ScriptRunner interface {
	Available() bool
	Execute(ctx context.Context, script string) executor.Result
}

// Recorder guarda cada resposta (auditoria); opcional
type Recorder interface {
	Record(ctx context.Context, r Response) error
}

// Service implementa translateAndAnswer(query) -> Response
type Service struct {
	log        *zap.Logger
	translator Translator
	runner     ScriptRunner
	summarizer llm.Completer

	Recorder   Recorder
	Now        func() time.Time
	OnOutcome  func(Outcome)      // métricas
	OnLLMError func(stage string) // métricas
}

func New(log *zap.Logger, t Translator, r ScriptRunner, summarizer llm.Completer) *Service {
	return &Service{
		log:        logger.OrNop(log),
		translator: t,
		runner:     r,
		summarizer: summarizer,
		Now:        time.Now,
	}
}

// Answer nunca devolve erro: toda falha vira um desfecho degradado
func (s *Service) Answer(ctx context.Context, query string) Response {
	resp := s.answer(ctx, query)

	if s.OnOutcome != nil {
		s.OnOutcome(resp.Outcome)
	}
	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, resp); err != nil {
			s.log.Warn("query audit failed", zap.Error(err))
		}
	}
	s.log.Info("query answered",
		zap.String("outcome", string(resp.Outcome)),
		zap.Int("rows", len(resp.MongoResults)),
		zap.Int64("execution_ms", resp.ExecutionTimeMs),
	)
	return resp
}

func (s *Service) answer(ctx context.Context, query string) Response {
	resp := Response{
		Query:        query,
		Timestamp:    s.Now().UTC(),
		MongoResults: []any{},
	}

	tr, err := s.translator.Translate(ctx, query)
	if err != nil {
		if errors.Is(err, translator.ErrBackendUnavailable) {
			s.llmFailed("translate")
		}
		s.log.Warn("translation failed", zap.Error(err))
		return noScript(resp)
	}
	resp.Explanation = tr.Explanation

	if isPlaceholder(tr.Script) {
		return noScript(resp)
	}

	script, err := sanitizer.Sanitize(tr.Script)
	switch {
	case errors.Is(err, sanitizer.ErrUnsafeScript):
		var rej *sanitizer.RejectedError
		if errors.As(err, &rej) {
			s.log.Warn("unsafe script rejected", zap.String("rule", rej.Rule))
		}
		resp.MongoScript = sanitizer.Normalize(tr.Script)
		resp.ScriptGenerated = true
		return executionError(resp, err.Error())
	case err != nil:
		// texto conversacional no lugar do script
		return noScript(resp)
	}
	resp.MongoScript = script
	resp.ScriptGenerated = true

	if s.runner == nil || !s.runner.Available() {
		resp.Outcome = OutcomeNoBackend
		resp.Confidence = confidenceDegraded
		resp.Message = msgNoBackend
		return resp
	}

	res := s.runner.Execute(ctx, script)
	resp.ExecutionTimeMs = res.ExecutionTimeMs
	if !res.Success {
		return executionError(resp, res.Error)
	}

	resp.Confidence = confidenceAnswered
	if len(res.Data) == 0 {
		resp.Outcome = OutcomeEmptyResult
		resp.NoResultsFound = true
		resp.Message = msgEmptyResult
		return resp
	}

	resp.Outcome = OutcomeSuccess
	resp.MongoResults = res.Data
	resp.Message = s.summarize(ctx, query, res.Data)
	return resp
}

// summarize faz a segunda chamada ao modelo; falha cai no dump das linhas
func (s *Service) summarize(ctx context.Context, query string, rows []any) string {
	if s.summarizer == nil {
		return rawDump(rows)
	}
	prompt, err := buildSummaryPrompt(query, rows)
	if err != nil {
		return rawDump(rows)
	}
	out, err := s.summarizer.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		s.llmFailed("summarize")
		s.log.Warn("summary failed, returning raw rows", zap.Error(err))
		return rawDump(rows)
	}
	return strings.TrimSpace(out)
}

func (s *Service) llmFailed(stage string) {
	if s.OnLLMError != nil {
		s.OnLLMError(stage)
	}
}

func noScript(resp Response) Response {
	resp.Outcome = OutcomeNoScript
	resp.Confidence = confidenceDegraded
	resp.Message = msgNoScript
	resp.MongoScript = ""
	resp.ScriptGenerated = false
	return resp
}

func executionError(resp Response, detail string) Response {
	resp.Outcome = OutcomeExecutionError
	resp.Confidence = confidenceDegraded
	resp.Message = msgExecutionError + detail
	resp.MongoResults = []any{}
	return resp
}

var placeholders = map[string]bool{
	"": true, "null": true, "undefined": true, "none": true, "n/a": true,
	"...": true, "<script>": true, "<mongoscript>": true, "todo": true,
}

// isPlaceholder detecta script vazio ou texto de exemplo devolvido pelo modelo
func isPlaceholder(script string) bool {
	return placeholders[strings.ToLower(sanitizer.Normalize(script))]
}
