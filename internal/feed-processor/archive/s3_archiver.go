// Package archive guarda os arquivos de feed originais num bucket S3
// compatível (AWS, MinIO, R2) depois que a ingestão termina.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config do bucket de arquivamento
type Config struct {
	Bucket    string
	Endpoint  string // vazio = AWS S3
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string // default "feeds"
}

// S3Archiver envia arquivos com o upload manager (multipart para arquivos grandes)
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	now      func() time.Time
}

// NewS3Archiver monta o client S3; endpoint customizado força path-style
func NewS3Archiver(ctx context.Context, cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket name is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "feeds"
	}
	return &S3Archiver{
		uploader: manager.NewUploader(s3.NewFromConfig(awsCfg, s3Opts...)),
		bucket:   cfg.Bucket,
		prefix:   prefix,
		now:      time.Now,
	}, nil
}

// Archive envia o arquivo para <prefix>/AAAA/MM/DD/<nome>
func (a *S3Archiver) Archive(ctx context.Context, filePath string) error {
	fh, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", filePath, err)
	}
	defer fh.Close()

	key := ObjectKey(a.prefix, filePath, a.now())
	if _, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   fh,
	}); err != nil {
		return fmt.Errorf("archive: upload %s: %w", key, err)
	}
	return nil
}

// ObjectKey particiona por dia de ingestão (UTC)
func ObjectKey(prefix, filePath string, at time.Time) string {
	return path.Join(prefix, at.UTC().Format("2006/01/02"), filepath.Base(filePath))
}

func normaliseEndpoint(endpoint string) string {
	// "host:porta" seria lido como esquema por url.Parse
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}
