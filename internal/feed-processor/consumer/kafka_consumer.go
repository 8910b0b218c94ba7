package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
)

// MessageReader é satisfeito por *kafka.Reader
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter é satisfeito por *kafka.Writer (DLQ)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LineProcessor é satisfeito por *ingest.Pipeline
type LineProcessor interface {
	ProcessLine(ctx context.Context, line []byte) error
}

// Processor consome linhas cruas do tópico market_changes e as passa pelo
// mesmo pipeline da ingestão de arquivos, uma mensagem por vez.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log      *zap.Logger
	Reader   MessageReader
	Pipeline LineProcessor
	DLQ      MessageWriter // opcional

	OnConsumed func()       // métricas (counter++)
	OnLine     func(string) // métricas por resultado
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.failed("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.Pipeline.ProcessLine(ctx, m.Value); err != nil {
			stage := "persist"
			if errors.Is(err, ingest.ErrLineParse) {
				stage = "parse"
			}
			p.Log.Warn("market change failed",
				zap.String("stage", stage),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			p.failed(stage)
			if p.OnLine != nil {
				p.OnLine(ingest.ResultErrored)
			}
			p.deadLetter(ctx, m, stage, err)
			continue
		}
		if p.OnLine != nil {
			p.OnLine(ingest.ResultProcessed)
		}
	}
}

// deadLetter copia a mensagem original para a DLQ com o motivo nos headers
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, stage string, cause error) {
	if p.DLQ == nil {
		return
	}
	dlq := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "stage", Value: []byte(stage)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	}
	if err := p.DLQ.WriteMessages(ctx, dlq); err != nil {
		p.Log.Error("dlq publish failed", zap.Error(err))
		p.failed("dlq")
	}
}

func (p *Processor) failed(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
