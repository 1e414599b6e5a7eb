package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HOJALDRE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "HOJALDRE_DB_DSN"
	EnvDBHost = "HOJALDRE_DB_HOST"
	EnvDBUser = "HOJALDRE_DB_USER"
	EnvDBName = "HOJALDRE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	AdminJWT     AdminJWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Telegram     TelegramConfig
	OpenAI       OpenAIConfig
	Resolver     ResolverConfig
	Pricing      PricingConfig
	Business     BusinessConfig
	Session      SessionConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	SMTP         SMTPConfig
	Documents    DocumentsConfig
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
	Env          string `envconfig:"HOJALDRE_APP_ENV" required:"true"`
	Port         string `envconfig:"HOJALDRE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOJALDRE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOJALDRE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOJALDRE_SERVICE_KIND" default:"bot"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOJALDRE_DB_DSN"`
	Driver string `envconfig:"HOJALDRE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOJALDRE_DB_HOST"`
	LegacyPort     int    `envconfig:"HOJALDRE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOJALDRE_DB_USER"`
	LegacyPassword string `envconfig:"HOJALDRE_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOJALDRE_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOJALDRE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOJALDRE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOJALDRE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOJALDRE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOJALDRE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOJALDRE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOJALDRE_REDIS_ADDR"`
	Password     string        `envconfig:"HOJALDRE_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOJALDRE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOJALDRE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOJALDRE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOJALDRE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOJALDRE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOJALDRE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AdminJWTConfig struct {
	Secret            string `envconfig:"HOJALDRE_ADMIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HOJALDRE_ADMIN_JWT_ISSUER" default:"casahojaldre"`
	ExpirationMinutes int    `envconfig:"HOJALDRE_ADMIN_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the admin token lifetime.
func (j AdminJWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type RateLimitConfig struct {
	WebhookWindow       time.Duration `envconfig:"HOJALDRE_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookSessionLimit int           `envconfig:"HOJALDRE_RATE_LIMIT_WEBHOOK_SESSION_LIMIT" default:"30"`
	DedupTTL            time.Duration `envconfig:"HOJALDRE_RATE_LIMIT_DEDUP_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOJALDRE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOJALDRE_AUTO_MIGRATE" default:"false"`
}

type TelegramConfig struct {
	BotToken      string        `envconfig:"HOJALDRE_TELEGRAM_BOT_TOKEN" required:"true"`
	APIBaseURL    string        `envconfig:"HOJALDRE_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	WebhookSecret string        `envconfig:"HOJALDRE_TELEGRAM_WEBHOOK_SECRET"`
	SendTimeout   time.Duration `envconfig:"HOJALDRE_TELEGRAM_SEND_TIMEOUT" default:"10s"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"HOJALDRE_OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"HOJALDRE_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"HOJALDRE_OPENAI_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int           `envconfig:"HOJALDRE_OPENAI_MAX_TOKENS" default:"400"`
	Temperature float64       `envconfig:"HOJALDRE_OPENAI_TEMPERATURE" default:"0.7"`
	Timeout     time.Duration `envconfig:"HOJALDRE_OPENAI_TIMEOUT" default:"20s"`
}

type ResolverConfig struct {
	ConfidenceThreshold float64 `envconfig:"HOJALDRE_RESOLVER_CONFIDENCE_THRESHOLD" default:"0.5"`
	HistoryWindow       int     `envconfig:"HOJALDRE_RESOLVER_HISTORY_WINDOW" default:"10"`
	PromptTurns         int     `envconfig:"HOJALDRE_RESOLVER_PROMPT_TURNS" default:"6"`
}

type PricingConfig struct {
	// TierSpec lists quantity thresholds and discount percents as
	// "minQty:percent" pairs, e.g. "100:15,50:10,20:5".
	TierSpec string `envconfig:"HOJALDRE_PRICING_TIERS" default:"100:15,50:10,20:5"`
}

type BusinessConfig struct {
	Name            string `envconfig:"HOJALDRE_BUSINESS_NAME" default:"Casa Hojaldre"`
	WhatsApp        string `envconfig:"HOJALDRE_BUSINESS_WHATSAPP" default:"+57 301 417 0313"`
	Email           string `envconfig:"HOJALDRE_BUSINESS_EMAIL" default:"casahojaldre@gmail.com"`
	Instagram       string `envconfig:"HOJALDRE_BUSINESS_INSTAGRAM" default:"@casahojaldre"`
	PaymentMethods  string `envconfig:"HOJALDRE_BUSINESS_PAYMENT_METHODS" default:"Nequi o Daviplata"`
	PaymentPhone    string `envconfig:"HOJALDRE_BUSINESS_PAYMENT_PHONE" default:"3014170313"`
	AnticipoPercent int    `envconfig:"HOJALDRE_BUSINESS_ANTICIPO_PERCENT" default:"50"`
	HoursText       string `envconfig:"HOJALDRE_BUSINESS_HOURS" default:"Lunes a sábado de 8:00 AM a 6:00 PM"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"HOJALDRE_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"HOJALDRE_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HOJALDRE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HOJALDRE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HOJALDRE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"HOJALDRE_PUBSUB_ORDER_EVENTS_TOPIC" required:"true"`
	OrderEventsSubscription string `envconfig:"HOJALDRE_PUBSUB_ORDER_EVENTS_SUBSCRIPTION" required:"true"`
}

type SMTPConfig struct {
	Host       string `envconfig:"HOJALDRE_SMTP_HOST"`
	Port       int    `envconfig:"HOJALDRE_SMTP_PORT" default:"587"`
	Username   string `envconfig:"HOJALDRE_SMTP_USERNAME"`
	Password   string `envconfig:"HOJALDRE_SMTP_PASSWORD"`
	From       string `envconfig:"HOJALDRE_SMTP_FROM"`
	AdminEmail string `envconfig:"HOJALDRE_SMTP_ADMIN_EMAIL"`
}

// Addr returns the host:port pair for the SMTP dialer.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DocumentsConfig struct {
	SpoolDir string `envconfig:"HOJALDRE_DOCUMENTS_SPOOL_DIR" default:"./documents"`
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
