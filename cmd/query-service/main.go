package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	fpcache "github.com/radieske/betting-feed-insights/internal/feed-processor/cache"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/pubsub"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/wiring"
	"github.com/radieske/betting-feed-insights/internal/query-service/answer"
	"github.com/radieske/betting-feed-insights/internal/query-service/executor"
	httpapi "github.com/radieske/betting-feed-insights/internal/query-service/http"
	"github.com/radieske/betting-feed-insights/internal/query-service/live"
	"github.com/radieske/betting-feed-insights/internal/query-service/llm"
	"github.com/radieske/betting-feed-insights/internal/query-service/querylog"
	"github.com/radieske/betting-feed-insights/internal/query-service/translator"
	sharedcache "github.com/radieske/betting-feed-insights/internal/shared/cache"
	"github.com/radieske/betting-feed-insights/internal/shared/config"
	"github.com/radieske/betting-feed-insights/internal/shared/db"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

func main() {
	// carrega config
	cfg := config.LoadFor("query-service")

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com o ledger; sem MONGO_URI as consultas respondem NoBackend
	var st store.Store = store.NewMemoryStore()
	shellURI := ""
	if cfg.MongoURI != "" {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal("failed to connect mongo", zap.Error(err))
		}
		mongoStore := store.NewMongo(client, cfg.MongoDatabase)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal("mongo indexes", zap.Error(err))
		}
		st = mongoStore
		shellURI = executor.DatabaseURI(cfg.MongoURI, cfg.MongoDatabase)
		log.Info("mongo connected", zap.String("database", cfg.MongoDatabase))
	} else {
		log.Warn("MONGO_URI not set, query execution disabled")
	}
	defer st.Close(context.Background())

	// métricas
	queryMetrics := metrics.NewQuery(prometheus.DefaultRegisterer)
	ingestMetrics := metrics.NewIngest(prometheus.DefaultRegisterer)

	// backend de linguagem; sem chave as chamadas falham e viram NoScript
	if cfg.LLMAPIKey == "" && cfg.LLMBaseURL == "" {
		log.Warn("LLM_API_KEY not set, translations will degrade")
	}
	completer := llm.NewOpenAI(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)

	exec := executor.New(log, cfg.MongoShellPath, shellURI)
	exec.OnExecuted = func(d time.Duration, _ bool) { queryMetrics.Execution.Observe(d.Seconds()) }

	svc := answer.New(log, translator.New(log, completer), exec, completer)
	svc.OnOutcome = func(o answer.Outcome) { queryMetrics.Outcomes.WithLabelValues(string(o)).Inc() }
	svc.OnLLMError = func(stage string) { queryMetrics.LLMErrors.WithLabelValues(stage).Inc() }

	// auditoria opcional em Postgres
	if cfg.PostgresDSN != "" {
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		qlog := querylog.NewPostgres(pg)
		if err := qlog.EnsureSchema(ctx); err != nil {
			log.Fatal("query_log schema", zap.Error(err))
		}
		svc.Recorder = qlog
		log.Info("postgres connected, query audit enabled")
	}

	// hub WebSocket de preços em tempo real
	hub := live.NewHub(log, func(*http.Request) bool { return true })
	hub.OnSent = queryMetrics.LiveSent.Inc

	// ingestão de arquivos pela API usa o mesmo pipeline do CLI
	deps := wiring.Deps{Log: log, Store: st, Metrics: ingestMetrics}
	if cfg.RedisAddr != "" {
		rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, ingest without definition cache and live stream", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.Cache = fpcache.NewDefinitionCache(rdb, cfg.DefinitionCacheTTL)
			deps.Broadcaster = pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
			live.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)
			log.Info("subscribed to price broadcast", zap.String("channel", cfg.RedisPubSubChannel))
		}
	}
	ingester := ingest.NewFileIngester(log, wiring.NewPipeline(deps), nil)

	api := &httpapi.API{
		Log:       log,
		Answers:   svc,
		Events:    st,
		Ingester:  ingester,
		IngestDir: cfg.IngestDir,
		Live:      hub.HandleWS,
	}

	// sobe servidor de métricas e health
	if msrv := metrics.StartMetricsServer(cfg.MetricsPort, st.Ping); msrv != nil {
		log.Info("metrics/health listening", zap.String("addr", msrv.Addr))
		defer msrv.Close()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
