package replay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/feed-processor/ingest"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

// maxLine acompanha o limite do scanner do pipeline de ingestão
const maxLine = 16 << 20

// Broadcaster é implementado por Hub
type Broadcaster interface {
	Broadcast(line []byte)
}

// Replayer lê o arquivo e envia uma linha não vazia a cada Interval
type Replayer struct {
	Log      *zap.Logger
	Out      Broadcaster
	Interval time.Duration // 0 envia sem pausa
	Loop     bool          // recomeça o arquivo ao chegar no fim
}

// Replay envia as linhas de r e retorna quantas foram enviadas
func (p *Replayer) Replay(ctx context.Context, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var ticker *time.Ticker
	if p.Interval > 0 {
		ticker = time.NewTicker(p.Interval)
		defer ticker.Stop()
	}

	sent := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if ticker != nil && sent > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return sent, err
		}
		// o scanner reaproveita o buffer
		p.Out.Broadcast(append([]byte(nil), line...))
		sent++
	}
	if err := sc.Err(); err != nil {
		return sent, fmt.Errorf("read feed: %w", err)
	}
	return sent, nil
}

// Run abre o arquivo (.gz e .bz2 aceitos) e reproduz até o fim, ou em
// loop até ctx ser cancelado
func (p *Replayer) Run(ctx context.Context, path string) error {
	log := logger.OrNop(p.Log)
	for pass := 1; ; pass++ {
		n, err := p.replayFile(ctx, path)
		if err != nil {
			return err
		}
		log.Info("feed replay finished", zap.String("path", path), zap.Int("pass", pass), zap.Int("lines", n))
		if !p.Loop || n == 0 {
			return nil
		}
	}
}

func (p *Replayer) replayFile(ctx context.Context, path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open feed file: %w", err)
	}
	defer fh.Close()

	r, err := ingest.Decompress(path, fh)
	if err != nil {
		return 0, fmt.Errorf("open feed file %s: %w", path, err)
	}
	defer r.Close()
	return p.Replay(ctx, r)
}
