package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
	"github.com/radieske/betting-feed-insights/internal/query-service/answer"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

// Answerer é implementado por answer.Service
type Answerer interface {
	Answer(ctx context.Context, query string) answer.Response
}

// Summarizer é satisfeito por qualquer store.Store
type Summarizer interface {
	EventSummary(ctx context.Context, eventID string) (*store.EventSummary, error)
}

// Ingester é implementado por ingest.FileIngester
type Ingester interface {
	Ingest(ctx context.Context, path string) (ingest.Stats, error)
}

// API expõe consultas em linguagem natural, resumo de eventos e ingestão de arquivos
type API struct {
	Log      *zap.Logger
	Answers  Answerer   // tradução e resposta de perguntas
	Events   Summarizer // leitura do ledger
	Ingester Ingester   // opcional; nil desliga POST /v1/ingest

	IngestDir string           // único diretório aceito por POST /v1/ingest; vazio desliga
	Live      http.HandlerFunc // opcional; stream WebSocket de preços
}

type queryRequest struct {
	Query string `json:"query"`
}

type ingestRequest struct {
	Path string `json:"path"`
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/query", a.query)                     // pergunta em linguagem natural
	r.Get("/v1/events/{id}/summary", a.eventSummary) // mercados, status e preços de um evento
	r.Post("/v1/ingest", a.ingest)                   // ingestão de arquivo do feed
	if a.Live != nil {
		r.Get("/v1/stream/prices", a.Live) // preços em tempo real
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// query sempre responde 200 quando a pergunta é válida: falhas viram desfechos degradados
func (a *API) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}

	writeJSON(w, http.StatusOK, a.Answers.Answer(r.Context(), req.Query))
}

// eventSummary retorna o resumo do evento, com status pelo registro mais recente de cada mercado
func (a *API) eventSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sum, err := a.Events.EventSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		logger.OrNop(a.Log).Error("event summary failed", zap.String("event_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// ingest processa um arquivo do diretório de ingestão e devolve as contagens
func (a *API) ingest(w http.ResponseWriter, r *http.Request) {
	if a.Ingester == nil || a.IngestDir == "" {
		writeError(w, http.StatusNotImplemented, "ingestion disabled")
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "path required")
		return
	}

	path, err := resolveIngestPath(a.IngestDir, req.Path)
	if errors.Is(err, errOutsideIngestDir) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	st, err := a.Ingester.Ingest(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
