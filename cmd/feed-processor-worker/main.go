package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	fpcache "github.com/radieske/betting-feed-insights/internal/feed-processor/cache"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/consumer"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/pubsub"
	"github.com/radieske/betting-feed-insights/internal/feed-processor/wiring"
	sharedcache "github.com/radieske/betting-feed-insights/internal/shared/cache"
	"github.com/radieske/betting-feed-insights/internal/shared/config"
	"github.com/radieske/betting-feed-insights/internal/shared/db"
	"github.com/radieske/betting-feed-insights/internal/shared/kafka"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
	"github.com/radieske/betting-feed-insights/internal/shared/store"
)

func main() {
	cfg := config.LoadFor("feed-processor-worker")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Mongo e Redis
	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	defer connectCancel()
	client, err := db.ConnectMongo(connectCtx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	mongoStore := store.NewMongo(client, cfg.MongoDatabase)
	if err := mongoStore.EnsureIndexes(connectCtx); err != nil {
		log.Fatal("mongo indexes", zap.Error(err))
	}
	defer mongoStore.Close(context.Background())

	redisClient, err := sharedcache.ConnectRedis(connectCtx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Configura o consumer Kafka (consumer group feed-processor) e a DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketChanges, "feed-processor")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketChangesDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	ingestMetrics := metrics.NewIngest(prometheus.DefaultRegisterer)
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_proc_messages_consumed_total", Help: "mensagens consumidas"})
	prometheus.MustRegister(consumed)

	// O pipeline não recebe DeadLetter: o Processor publica a mensagem original na DLQ
	pipeline := wiring.NewPipeline(wiring.Deps{
		Log:         log,
		Store:       mongoStore,
		Cache:       fpcache.NewDefinitionCache(redisClient, cfg.DefinitionCacheTTL),
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		Metrics:     ingestMetrics,
	})

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Pipeline:   pipeline,
		DLQ:        dlq,
		OnConsumed: consumed.Inc,
		OnLine:     func(result string) { ingestMetrics.Lines.WithLabelValues(result).Inc() },
		OnError:    func(stage string) { ingestMetrics.Errors.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	health := func(ctx context.Context) error {
		if err := mongoStore.Ping(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	}
	if srv := metrics.StartMetricsServer(cfg.MetricsPort, health); srv != nil {
		log.Info("metrics/health listening", zap.String("addr", srv.Addr))
		defer srv.Close()
	}

	log.Info("feed-processor started", zap.String("topic", cfg.TopicMarketChanges))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("feed-processor stopped")
}
