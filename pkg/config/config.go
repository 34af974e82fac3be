package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field carries its fully-qualified
	// RETURNS_* variable name in its tag.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "RETURNS_APP_ENV"
	EnvDBDSN  = "RETURNS_DB_DSN"
	EnvDBHost = "RETURNS_DB_HOST"
	EnvDBUser = "RETURNS_DB_USER"
	EnvDBName = "RETURNS_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	ReturnPolicy ReturnPolicyConfig
	FeatureFlags FeatureFlagsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Reconciler   ReconcilerConfig
	GCP          GCPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.ReturnPolicy.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETURNS_APP_ENV" required:"true"`
	Port         string `envconfig:"RETURNS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETURNS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETURNS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETURNS_DB_DSN"`
	Driver string `envconfig:"RETURNS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETURNS_DB_HOST"`
	LegacyPort     int    `envconfig:"RETURNS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETURNS_DB_USER"`
	LegacyPassword string `envconfig:"RETURNS_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETURNS_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETURNS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETURNS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETURNS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETURNS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETURNS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETURNS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RETURNS_REDIS_ADDR"`
	Password     string        `envconfig:"RETURNS_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETURNS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETURNS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETURNS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETURNS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETURNS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETURNS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RETURNS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RETURNS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RETURNS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTTLHours   int    `envconfig:"RETURNS_JWT_REFRESH_TTL_HOURS" default:"168"`
}

// RefreshTokenTTL converts the configured refresh window to a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

// ReturnPolicyConfig is the single authoritative home for the workflow's
// policy constants. Nothing under internal/ hardcodes these.
type ReturnPolicyConfig struct {
	WindowDays           int           `envconfig:"RETURNS_POLICY_WINDOW_DAYS" default:"7"`
	PickupChargeCents    int64         `envconfig:"RETURNS_POLICY_PICKUP_CHARGE_CENTS" default:"50"`
	CoinsPerCurrencyUnit int64         `envconfig:"RETURNS_POLICY_COINS_PER_UNIT" default:"5"`
	OTPLockoutThreshold  int           `envconfig:"RETURNS_POLICY_OTP_LOCKOUT_THRESHOLD" default:"3"`
	OTPFailureWindow     time.Duration `envconfig:"RETURNS_POLICY_OTP_FAILURE_WINDOW" default:"10m"`
	OTPLockoutDuration   time.Duration `envconfig:"RETURNS_POLICY_OTP_LOCKOUT_DURATION" default:"30m"`
}

func (p ReturnPolicyConfig) validate() error {
	if p.WindowDays <= 0 {
		return fmt.Errorf("return window days must be positive")
	}
	if p.PickupChargeCents < 0 {
		return fmt.Errorf("pickup charge must not be negative")
	}
	if p.CoinsPerCurrencyUnit <= 0 {
		return fmt.Errorf("coin conversion rate must be positive")
	}
	if p.OTPLockoutThreshold <= 0 {
		return fmt.Errorf("otp lockout threshold must be positive")
	}
	if p.OTPFailureWindow <= 0 || p.OTPLockoutDuration <= 0 {
		return fmt.Errorf("otp windows must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETURNS_AUTO_MIGRATE" default:"false"`
}

type PubSubConfig struct {
	ReturnsTopic             string `envconfig:"RETURNS_PUBSUB_RETURNS_TOPIC" default:"return-lifecycle-events"`
	ReturnsSubscription      string `envconfig:"RETURNS_PUBSUB_RETURNS_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"RETURNS_PUBSUB_NOTIFICATION_TOPIC" default:"returns-notification-events"`
	NotificationSubscription string `envconfig:"RETURNS_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RETURNS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RETURNS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RETURNS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ReconcilerConfig struct {
	Interval  time.Duration `envconfig:"RETURNS_RECONCILER_INTERVAL" default:"5m"`
	BatchSize int           `envconfig:"RETURNS_RECONCILER_BATCH_SIZE" default:"100"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"RETURNS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"RETURNS_GCP_CREDENTIALS_JSON"`
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
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
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
