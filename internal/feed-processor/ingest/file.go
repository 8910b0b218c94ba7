package ingest

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

// Archiver guarda o arquivo original depois de uma ingestão bem sucedida
type Archiver interface {
	Archive(ctx context.Context, path string) error
}

// FileIngester implementa ingest(filePath) -> {processedCount, errorCount}
type FileIngester struct {
	log      *zap.Logger
	pipeline *Pipeline
	archiver Archiver // opcional
}

// NewFileIngester cria o ingester; archiver pode ser nil
func NewFileIngester(log *zap.Logger, p *Pipeline, a Archiver) *FileIngester {
	return &FileIngester{log: logger.OrNop(log), pipeline: p, archiver: a}
}

// Ingest processa o arquivo linha a linha. Arquivos .gz e .bz2 são
// descompactados em stream. Só retorna erro se o arquivo não puder ser lido.
func (f *FileIngester) Ingest(ctx context.Context, path string) (Stats, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open feed file: %w", err)
	}
	defer fh.Close()

	r, err := Decompress(path, fh)
	if err != nil {
		return Stats{}, fmt.Errorf("open feed file %s: %w", path, err)
	}
	defer r.Close()

	f.log.Info("ingesting feed file", zap.String("path", path))
	st, err := f.pipeline.Run(ctx, r)
	if err != nil {
		return st, err
	}

	if f.archiver != nil {
		if err := f.archiver.Archive(ctx, path); err != nil {
			// o ledger já está gravado; arquivamento é só retenção
			f.log.Warn("feed archive failed", zap.String("path", path), zap.Error(err))
		}
	}
	return st, nil
}

// Decompress escolhe o leitor pela extensão (.gz, .bz2 ou texto puro).
// Close libera só o descompressor; r continua sendo do chamador.
func Decompress(path string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case ".bz2":
		return io.NopCloser(bzip2.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
