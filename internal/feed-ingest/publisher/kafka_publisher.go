package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	skafka "github.com/radieske/betting-feed-insights/internal/shared/kafka"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

// MessageWriter é satisfeito por *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica linhas cruas do feed no tópico market_changes.
type KafkaPublisher struct {
	writer MessageWriter
	log    *zap.Logger

	OnPublished func()      // métricas
	OnError     func(error) // métricas
}

// NewKafkaPublisher cria um publisher para o tópico informado.
// Em ambientes local/dev o tópico é criado via controller do cluster.
func NewKafkaPublisher(brokers, topic, env string, log *zap.Logger) *KafkaPublisher {
	log = logger.OrNop(log)
	if env == "local" || env == "dev" {
		if err := EnsureTopic(brokers, topic); err != nil {
			log.Warn("failed to create kafka topic", zap.String("topic", topic), zap.Error(err))
		}
	}
	return NewWithWriter(skafka.NewWriter(brokers, topic), log)
}

// NewWithWriter permite injetar o writer (testes)
func NewWithWriter(w MessageWriter, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: logger.OrNop(log)}
}

// EnsureTopic cria o tópico com uma partição; tópico existente não é erro
func EnsureTopic(brokers, topic string) error {
	addrs := strings.Split(brokers, ",")
	if len(addrs) == 0 || strings.TrimSpace(addrs[0]) == "" {
		return fmt.Errorf("kafka brokers not provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", strings.TrimSpace(addrs[0]))
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	err = cconn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// Publish envia a linha como veio do fornecedor. A chave mantém todas as
// mudanças de um mercado na mesma partição, preservando a ordem.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, line []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: line,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish market change", zap.String("key", key), zap.Error(err))
		if p.OnError != nil {
			p.OnError(err)
		}
		return err
	}
	if p.OnPublished != nil {
		p.OnPublished()
	}

	p.log.Debug("published market change", zap.String("key", key))
	return nil
}

// Close finaliza o writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
