package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-ingest/publisher"
	"github.com/radieske/betting-feed-insights/internal/feed-ingest/stream"
	"github.com/radieske/betting-feed-insights/internal/shared/config"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("feed-ingest-service")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Kafka brokers", zap.String("brokers", cfg.KafkaBrokers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Métricas do repasse WS -> Kafka
	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_stream_messages_published_total", Help: "mensagens publicadas no kafka"})
	publishErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_stream_publish_errors_total", Help: "falhas de publicação no kafka"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_stream_invalid_messages_total", Help: "mensagens do fornecedor que não são JSON"})
	prometheus.MustRegister(published, publishErrors, invalid)

	// Kafka Publisher
	pub := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicMarketChanges, cfg.Env, log)
	defer pub.Close()
	pub.OnPublished = published.Inc
	pub.OnError = func(error) { publishErrors.Inc() }

	// WS Client
	wsClient := &stream.WSClient{
		URL:       cfg.FeedWSURL,
		Log:       log,
		Publisher: pub,
		OnInvalid: invalid.Inc,
	}
	go wsClient.Start(ctx)

	// Metrics e health
	if srv := metrics.StartMetricsServer(cfg.MetricsPort, nil); srv != nil {
		log.Info("metrics/health listening", zap.String("addr", srv.Addr))
		defer srv.Close()
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")
	cancel()
	time.Sleep(2 * time.Second)
}
