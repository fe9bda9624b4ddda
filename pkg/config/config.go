package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PackingProof PackingProofConfig
	Returns      ReturnsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RISBOW_APP_ENV" required:"true"`
	Port         string   `envconfig:"RISBOW_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"RISBOW_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"RISBOW_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"RISBOW_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RISBOW_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RISBOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"RISBOW_DB_DSN"`

	LegacyHost     string `envconfig:"RISBOW_DB_HOST"`
	LegacyPort     int    `envconfig:"RISBOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RISBOW_DB_USER"`
	LegacyPassword string `envconfig:"RISBOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"RISBOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"RISBOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RISBOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RISBOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RISBOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RISBOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"RISBOW_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RISBOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RISBOW_REDIS_ADDR"`
	Password     string        `envconfig:"RISBOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"RISBOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RISBOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RISBOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RISBOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RISBOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RISBOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify access tokens minted by the auth service.
type JWTConfig struct {
	Secret            string `envconfig:"RISBOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RISBOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RISBOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RISBOW_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"RISBOW_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"RISBOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"RISBOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"RISBOW_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"RISBOW_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

// PackingProofConfig bounds vendor packing video uploads.
type PackingProofConfig struct {
	MaxVideoMB int    `envconfig:"RISBOW_PACKING_MAX_VIDEO_MB" default:"50"`
	KeyPrefix  string `envconfig:"RISBOW_PACKING_KEY_PREFIX" default:"packing-proofs"`
}

// MaxVideoBytes returns the configured upload ceiling in bytes.
func (p PackingProofConfig) MaxVideoBytes() int64 {
	if p.MaxVideoMB <= 0 {
		return 50 << 20
	}
	return int64(p.MaxVideoMB) << 20
}

type ReturnsConfig struct {
	NumberPrefix string        `envconfig:"RISBOW_RETURNS_NUMBER_PREFIX" default:"RET"`
	CounterTTL   time.Duration `envconfig:"RISBOW_RETURNS_COUNTER_TTL" default:"720h"`
	CreateLimit  int           `envconfig:"RISBOW_RETURNS_CREATE_LIMIT" default:"10"`
	CreateWindow time.Duration `envconfig:"RISBOW_RETURNS_CREATE_WINDOW" default:"1h"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"RISBOW_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"RISBOW_PUBSUB_ORDERS_SUBSCRIPTION"`
	ReturnsTopic       string `envconfig:"RISBOW_PUBSUB_RETURNS_TOPIC" required:"true"`
	RefundsTopic       string `envconfig:"RISBOW_PUBSUB_REFUNDS_TOPIC" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RISBOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RISBOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RISBOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
