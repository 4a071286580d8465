package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the meetingcal service.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Legistar LegistarConfig
	Calendar CalendarConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"meetingcal"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"APP_LOG_ENCODING" envDefault:"json"`
}

type HTTPConfig struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
}

type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9102"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=meetingcal"`
}

type KafkaConfig struct {
	Enabled          bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	SyncTopic        string        `env:"KAFKA_SYNC_TOPIC" envDefault:"meetingcal.calendar.synced"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"10"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"meetingcal-cache"`
	Prefix    string `env:"STORAGE_PREFIX" envDefault:"cache/"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// CacheConfig selects the tiers backing the event cache and its freshness windows.
type CacheConfig struct {
	EphemeralTier string        `env:"CACHE_EPHEMERAL_TIER" envDefault:"memory"`
	DurableTier   string        `env:"CACHE_DURABLE_TIER" envDefault:"none"`
	Key           string        `env:"CACHE_KEY" envDefault:"meetingcal:events:v1"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"30m"`
	StaleTTL      time.Duration `env:"CACHE_STALE_TTL" envDefault:"24h"`
}

type LegistarConfig struct {
	BaseURL        string        `env:"LEGISTAR_BASE_URL" envDefault:"https://webapi.legistar.com/v1"`
	Top            int           `env:"LEGISTAR_TOP" envDefault:"200"`
	MaxAttempts    int           `env:"LEGISTAR_MAX_ATTEMPTS" envDefault:"3"`
	InitialBackoff time.Duration `env:"LEGISTAR_INITIAL_BACKOFF" envDefault:"500ms"`
	RequestTimeout time.Duration `env:"LEGISTAR_REQUEST_TIMEOUT" envDefault:"8s"`
}

type CalendarConfig struct {
	Sources         []string      `env:"CALENDAR_SOURCES" envSeparator:"," envDefault:"milwaukee,milwaukeecounty"`
	Timezone        string        `env:"CALENDAR_TIMEZONE" envDefault:"America/Chicago"`
	Horizon         time.Duration `env:"CALENDAR_HORIZON" envDefault:"2160h"`
	RefreshSchedule string        `env:"CALENDAR_REFRESH_SCHEDULE" envDefault:"@every 30m"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
