package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/archive"
	fpcache "github.com/radieske/betting-feed-insights/internal/feed-processor/cache"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/pubsub"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/wiring"
	sharedcache "github.com/radieske/betting-feed-insights/internal/shared/cache"
	"github.com/radieske/betting-feed-insights/internal/shared/config"
	"github.com/radieske/betting-feed-insights/internal/shared/db"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

// feed-ingest <arquivo> [arquivo...]
// Cada arquivo é processado em sequência; a saída é uma linha JSON por arquivo.
func main() {
	cfg := config.LoadFor("feed-ingest")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: feed-ingest <file> [file...]")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Ledger: Mongo ou memória (dry-run)
	var st store.Store
	if cfg.IngestDryRun {
		st = store.NewMemoryStore()
		log.Info("dry run: records kept in memory")
	} else {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal("mongo connect", zap.Error(err))
		}
		mongoStore := store.NewMongo(client, cfg.MongoDatabase)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal("mongo indexes", zap.Error(err))
		}
		st = mongoStore
	}
	defer st.Close(context.Background())

	deps := wiring.Deps{
		Log:     log,
		Store:   st,
		Metrics: metrics.NewIngest(prometheus.DefaultRegisterer),
	}

	// Redis é opcional aqui: sem ele os nomes vêm direto do banco
	if cfg.RedisAddr != "" {
		rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, running without definition cache", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.Cache = fpcache.NewDefinitionCache(rdb, cfg.DefinitionCacheTTL)
			deps.Broadcaster = pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
		}
	}

	var archiver ingest.Archiver
	if cfg.ArchiveBucket != "" {
		a, err := archive.NewS3Archiver(ctx, archive.Config{
			Bucket:    cfg.ArchiveBucket,
			Endpoint:  cfg.ArchiveEndpoint,
			Region:    cfg.ArchiveRegion,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		})
		if err != nil {
			log.Fatal("archive init", zap.Error(err))
		}
		archiver = a
	}

	if srv := metrics.StartMetricsServer(cfg.MetricsPort, st.Ping); srv != nil {
		defer srv.Close()
	}

	ingester := ingest.NewFileIngester(log, wiring.NewPipeline(deps), archiver)

	exitCode := 0
	out := json.NewEncoder(os.Stdout)
	for _, path := range os.Args[1:] {
		start := time.Now()
		stats, err := ingester.Ingest(ctx, path)
		if err != nil {
			log.Error("ingest failed", zap.String("path", path), zap.Error(err))
			exitCode = 1
			continue
		}
		log.Info("ingest finished",
			zap.String("path", path),
			zap.Int("processed", stats.Processed),
			zap.Int("errored", stats.Errored),
			zap.Duration("took", time.Since(start)),
		)
		_ = out.Encode(struct {
			File string `json:"file"`
			ingest.Stats
		}{File: path, Stats: stats})
	}

	if exitCode != 0 {
		log.Sync()
		os.Exit(exitCode)
	}
}
