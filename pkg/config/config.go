package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/supplierhq/suppliers-backend/pkg/enums"
)

// EnvPrefix is passed to envconfig when processing the environment.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Notifications NotificationsConfig
	Sendgrid      SendgridConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUPPLIERHQ_APP_ENV" required:"true"`
	Port         string `envconfig:"SUPPLIERHQ_APP_PORT" required:"true"`
	SiteTitle    string `envconfig:"SUPPLIERHQ_SITE_TITLE" default:"SupplierHQ"`
	LogLevel     string `envconfig:"SUPPLIERHQ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPPLIERHQ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SUPPLIERHQ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SUPPLIERHQ_DB_DSN"`
	Driver string `envconfig:"SUPPLIERHQ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SUPPLIERHQ_DB_HOST"`
	Port     int    `envconfig:"SUPPLIERHQ_DB_PORT" default:"5432"`
	User     string `envconfig:"SUPPLIERHQ_DB_USER"`
	Password string `envconfig:"SUPPLIERHQ_DB_PASSWORD"`
	Name     string `envconfig:"SUPPLIERHQ_DB_NAME"`
	SSLMode  string `envconfig:"SUPPLIERHQ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLIERHQ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLIERHQ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLIERHQ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLIERHQ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPPLIERHQ_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"SUPPLIERHQ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPPLIERHQ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPPLIERHQ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPPLIERHQ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUPPLIERHQ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SUPPLIERHQ_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SUPPLIERHQ_JWT_ISSUER" required:"true"`
}

// NotificationsConfig carries the supplier notification knobs. Raw env
// values are normalized here so downstream code only sees typed values.
type NotificationsConfig struct {
	TriggerStatusRaw     string `envconfig:"SUPPLIERHQ_NOTIFICATION_TRIGGER_STATUS" default:"processing"`
	EnableHistory        bool   `envconfig:"SUPPLIERHQ_ENABLE_EMAIL_HISTORY" default:"true"`
	BCCAdmin             bool   `envconfig:"SUPPLIERHQ_BCC_ADMIN" default:"true"`
	AdminEmail           string `envconfig:"SUPPLIERHQ_ADMIN_EMAIL"`
	HistoryRetentionDays int    `envconfig:"SUPPLIERHQ_HISTORY_RETENTION_DAYS" default:"90"`

	TriggerStatus enums.OrderStatus `ignored:"true"`
}

func (n *NotificationsConfig) normalize() error {
	status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(n.TriggerStatusRaw)))
	if err != nil {
		return fmt.Errorf("notification trigger status: %w", err)
	}
	n.TriggerStatus = status
	if n.HistoryRetentionDays <= 0 {
		return fmt.Errorf("history retention days must be positive, got %d", n.HistoryRetentionDays)
	}
	return nil
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SUPPLIERHQ_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SUPPLIERHQ_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"SUPPLIERHQ_SENDGRID_FROM_NAME" default:"SupplierHQ"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SUPPLIERHQ_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"SUPPLIERHQ_PUBSUB_ORDERS_TOPIC" default:"shq-order-events"`
	OrdersSubscription    string `envconfig:"SUPPLIERHQ_PUBSUB_ORDERS_SUBSCRIPTION"`
	LifecycleTopic        string `envconfig:"SUPPLIERHQ_PUBSUB_LIFECYCLE_TOPIC" default:"shq-lifecycle-events"`
	LifecycleSubscription string `envconfig:"SUPPLIERHQ_PUBSUB_LIFECYCLE_SUBSCRIPTION"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SUPPLIERHQ_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"SUPPLIERHQ_DB_HOST": db.Host,
		"SUPPLIERHQ_DB_USER": db.User,
		"SUPPLIERHQ_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SUPPLIERHQ_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
