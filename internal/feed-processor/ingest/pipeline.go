// Package ingest lê linhas do feed, isola falhas por linha e encaminha cada
// mensagem ao roteador. O processamento de um arquivo é sequencial: uma linha
// só começa depois que a escrita da anterior terminou.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
	"github.com/radieske/betting-feed-insights/pkg/contracts/feed"
)

// definições de mercado grandes passam do limite padrão do bufio.Scanner
const maxLineBytes = 16 << 20

// Resultado por linha (label das métricas)
const (
	ResultProcessed = "processed"
	ResultErrored   = "errored"
)

// MessageRouter é implementado por router.Router
type MessageRouter interface {
	Route(ctx context.Context, msg *feed.ChangeMessage) error
}

// DeadLetterFunc recebe linhas que falharam (ex.: publica numa DLQ)
type DeadLetterFunc func(ctx context.Context, line []byte, cause error)

// Stats é o retorno do contrato ingest(filePath)
type Stats struct {
	Processed int `json:"processedCount"`
	Errored   int `json:"errorCount"`
}

// Pipeline conecta o parser ao roteador
type Pipeline struct {
	log        *zap.Logger
	router     MessageRouter
	deadLetter DeadLetterFunc

	OnLine  func(result string) // métricas
	OnError func(stage string)  // métricas
}

// NewPipeline cria o pipeline; deadLetter pode ser nil
func NewPipeline(log *zap.Logger, r MessageRouter, deadLetter DeadLetterFunc) *Pipeline {
	return &Pipeline{log: logger.OrNop(log), router: r, deadLetter: deadLetter}
}

// ProcessLine decodifica e roteia uma linha. Erros de parse vêm embrulhados em
// ErrLineParse; os demais são falhas de persistência.
func (p *Pipeline) ProcessLine(ctx context.Context, line []byte) error {
	msg, err := ParseLine(line)
	if err != nil {
		return err
	}
	return p.router.Route(ctx, msg)
}

// Run processa todas as linhas não vazias de r. Falhas por linha entram em
// Errored; só retorna erro quando a própria leitura falha ou ctx é cancelado.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var st Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return st, err
		}

		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		if err := p.ProcessLine(ctx, line); err != nil {
			st.Errored++
			p.lineFailed(ctx, lineNo, line, err)
			continue
		}
		st.Processed++
		if p.OnLine != nil {
			p.OnLine(ResultProcessed)
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read feed: %w", err)
	}

	p.log.Info("feed processed",
		zap.Int("lines", lineNo),
		zap.Int("processed", st.Processed),
		zap.Int("errored", st.Errored),
	)
	return st, nil
}

func (p *Pipeline) lineFailed(ctx context.Context, lineNo int, line []byte, err error) {
	stage := "persist"
	if errors.Is(err, ErrLineParse) {
		stage = "parse"
	}
	p.log.Warn("line failed", zap.Int("line", lineNo), zap.String("stage", stage), zap.Error(err))

	if p.OnLine != nil {
		p.OnLine(ResultErrored)
	}
	if p.OnError != nil {
		p.OnError(stage)
	}
	if p.deadLetter != nil {
		// scanner reaproveita o buffer
		p.deadLetter(ctx, append([]byte(nil), line...), err)
	}
}
