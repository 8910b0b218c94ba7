package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-simulator/replay"
	"github.com/radieske/betting-feed-insights/internal/shared/config"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("feed-simulator")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.FeedFile == "" {
		log.Fatal("FEED_FILE is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Métricas para monitoramento de conexões e mensagens
	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{Name: "feed_simulator_ws_connections", Help: "Clientes WebSocket conectados"})
	wsMessagesSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_simulator_ws_messages_sent_total", Help: "Total de mensagens WS enviadas"})
	prometheus.MustRegister(wsConnections, wsMessagesSent)

	hub := replay.NewHub(log)
	hub.OnConnected = wsConnections.Inc
	hub.OnDisconnected = wsConnections.Dec
	hub.OnSent = wsMessagesSent.Inc

	// ==== MUX PÚBLICO: /stream
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", hub.HandleWS)
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("feed simulator running", zap.String("addr", srv.Addr), zap.String("path", "/stream"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("public server error", zap.Error(err))
			cancel()
		}
	}()

	// ==== /healthz e /metrics
	if msrv := metrics.StartMetricsServer(cfg.MetricsPort, nil); msrv != nil {
		log.Info("metrics/health listening", zap.String("addr", msrv.Addr))
		defer msrv.Close()
	}

	// Espera o primeiro consumidor para não perder o início do arquivo
	select {
	case <-hub.Ready():
	case <-ctx.Done():
	}

	replayer := &replay.Replayer{Log: log, Out: hub, Interval: cfg.ReplayInterval, Loop: cfg.ReplayLoop}
	if err := replayer.Run(ctx, cfg.FeedFile); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("feed replay failed", zap.String("path", cfg.FeedFile), zap.Error(err))
	}

	// sem loop o stream fica aberto até o sinal de parada
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
