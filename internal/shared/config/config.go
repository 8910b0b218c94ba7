package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	ctopics "github.com/radieske/betting-feed-insights/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução dos serviços
// Inclui conexões, tópicos, canais, backend de LLM, arquivamento e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "query-service", "feed-processor-worker", ...
	LogLevel    string

	// Banco de documentos (ledger de mercado)
	MongoURI       string
	MongoDatabase  string
	MongoShellPath string // shell usado pelo executor de scripts (mongosh)

	IngestDryRun bool   // ingestão de arquivo grava só em memória
	IngestDir    string // único diretório aceito por POST /v1/ingest

	PostgresDSN  string // auditoria de consultas; vazio desliga
	RedisAddr    string // vazio desliga cache/broadcast
	KafkaBrokers string // "a:9092,b:9092"

	// Tópicos/canais
	TopicMarketChanges    string
	TopicMarketChangesDLQ string
	RedisPubSubChannel    string
	DefinitionCacheTTL    time.Duration

	// Feed em tempo real
	FeedWSURL string

	// Simulador: arquivo reproduzido como stream
	FeedFile       string
	ReplayInterval time.Duration
	ReplayLoop     bool

	// Backend de linguagem (API compatível com OpenAI)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Arquivamento dos arquivos de feed (S3 compatível); bucket vazio desliga
	ArchiveBucket    string
	ArchiveEndpoint  string
	ArchiveRegion    string
	ArchiveAccessKey string
	ArchiveSecretKey string

	// Portas do serviço atual
	HTTPPort    string // Porta pública (ex.: API REST)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega .env (se existir) e variáveis de ambiente, com defaults por serviço
// Resolve portas conforme o SERVICE_NAME
func Load() Config {
	return LoadFor("")
}

// LoadFor é Load com um SERVICE_NAME padrão para binários que rodam sem env
func LoadFor(defaultService string) Config {
	// .env é opcional; variáveis já exportadas têm precedência
	_ = godotenv.Load()

	svc := getEnv("SERVICE_NAME", defaultService)
	env := getEnv("ENV", "local")

	cfg := Config{
		Env:         env,
		ServiceName: svc,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "betting_feed"),
		MongoShellPath: getEnv("MONGO_SHELL_PATH", "mongosh"),

		IngestDryRun: getEnv("INGEST_DRY_RUN", "false") == "true",
		IngestDir:    getEnv("INGEST_DIR", "data"),

		PostgresDSN:  getEnv("POSTGRES_DSN", ""),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		TopicMarketChanges:    getEnv("KAFKA_TOPIC_MARKET_CHANGES", ctopics.MarketChanges),
		TopicMarketChangesDLQ: getEnv("KAFKA_TOPIC_MARKET_CHANGES_DLQ", ctopics.MarketChangesDLQ),
		RedisPubSubChannel:    getEnv("REDIS_PUBSUB_CHANNEL", ctopics.ChannelPriceBroadcast),
		DefinitionCacheTTL:    getDuration("DEFINITION_CACHE_TTL", 10*time.Minute),

		FeedWSURL: getEnv("FEED_WS_URL", "ws://localhost:8081/stream"),

		FeedFile:       getEnv("FEED_FILE", ""),
		ReplayInterval: getDuration("REPLAY_INTERVAL", 500*time.Millisecond),
		ReplayLoop:     getEnv("REPLAY_LOOP", "false") == "true",

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		ArchiveBucket:    getEnv("ARCHIVE_BUCKET", ""),
		ArchiveEndpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveRegion:    getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveAccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
	}

	// Define portas padrão para cada serviço
	switch svc {
	case "query-service":
		cfg.HTTPPort = getEnv("HTTP_PORT_QUERY", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT_QUERY", "9095")
	case "feed-ingest-service":
		cfg.HTTPPort = getEnv("HTTP_PORT_INGEST", "") // ingest não expõe HTTP público
		cfg.MetricsPort = getEnv("METRICS_PORT_INGEST", "9096")
	case "feed-processor-worker":
		cfg.HTTPPort = getEnv("HTTP_PORT_PROCESSOR", "")
		cfg.MetricsPort = getEnv("METRICS_PORT_PROCESSOR", "9097")
	case "feed-simulator":
		cfg.HTTPPort = getEnv("HTTP_PORT_SIMULATOR", "8081")
		cfg.MetricsPort = getEnv("METRICS_PORT_SIMULATOR", "9098")
	case "feed-ingest":
		cfg.HTTPPort = ""
		cfg.MetricsPort = getEnv("METRICS_PORT_FILE_INGEST", "")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9095")
	}

	return cfg
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// getDuration aceita "30s"/"5m" ou segundos inteiros
func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
