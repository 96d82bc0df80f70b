package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	Delivery      DeliveryConfig
	GoogleMaps    GoogleMapsConfig
	Payments      PaymentsConfig
	PhonePe       PhonePeConfig
	Stripe        StripeConfig
	Notifications NotificationsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BUYTOWN_APP_ENV" required:"true"`
	Port         string `envconfig:"BUYTOWN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUYTOWN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUYTOWN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"BUYTOWN_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"BUYTOWN_APP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BUYTOWN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BUYTOWN_DB_DSN"`
	Driver string `envconfig:"BUYTOWN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BUYTOWN_DB_HOST"`
	LegacyPort     int    `envconfig:"BUYTOWN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BUYTOWN_DB_USER"`
	LegacyPassword string `envconfig:"BUYTOWN_DB_PASSWORD"`
	LegacyName     string `envconfig:"BUYTOWN_DB_NAME"`
	LegacySSLMode  string `envconfig:"BUYTOWN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUYTOWN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BUYTOWN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BUYTOWN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUYTOWN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BUYTOWN_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BUYTOWN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUYTOWN_REDIS_ADDR"`
	Password     string        `envconfig:"BUYTOWN_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUYTOWN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUYTOWN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUYTOWN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUYTOWN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUYTOWN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUYTOWN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BUYTOWN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BUYTOWN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BUYTOWN_JWT_EXPIRATION_MINUTES" default:"60"`
	LeewaySeconds     int    `envconfig:"BUYTOWN_JWT_LEEWAY_SECONDS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BUYTOWN_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig carries the values that used to be read from process state
// on every checkout.
type CheckoutConfig struct {
	DefaultTaxRate     string        `envconfig:"BUYTOWN_CHECKOUT_DEFAULT_TAX_RATE" default:"0"`
	OrderNumberPrefix  string        `envconfig:"BUYTOWN_CHECKOUT_ORDER_NUMBER_PREFIX" default:"BYT"`
	IdempotencyTTL     time.Duration `envconfig:"BUYTOWN_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	MaxItemsPerCart    int           `envconfig:"BUYTOWN_CHECKOUT_MAX_ITEMS_PER_CART" default:"100"`
	RateLimit          int           `envconfig:"BUYTOWN_CHECKOUT_RATE_LIMIT" default:"10"`
	RateLimitWindow    time.Duration `envconfig:"BUYTOWN_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
	defaultTaxRateCast decimal.Decimal
}

// TaxRate returns the parsed fallback tax rate as a fraction.
func (c CheckoutConfig) TaxRate() decimal.Decimal {
	return c.defaultTaxRateCast
}

func (c *CheckoutConfig) validate() error {
	raw := strings.TrimSpace(c.DefaultTaxRate)
	if raw == "" {
		raw = "0"
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%s must be a decimal fraction: %w", EnvCheckoutDefaultTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in [0, 1)", EnvCheckoutDefaultTaxRate)
	}
	c.defaultTaxRateCast = rate
	if strings.TrimSpace(c.OrderNumberPrefix) == "" {
		c.OrderNumberPrefix = "BYT"
	}
	return nil
}

type DeliveryConfig struct {
	OriginAddress    string `envconfig:"BUYTOWN_DELIVERY_ORIGIN_ADDRESS"`
	StaticDistanceKm string `envconfig:"BUYTOWN_DELIVERY_STATIC_DISTANCE_KM" default:"0"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"BUYTOWN_GOOGLE_MAPS_API_KEY"`
}

type PaymentsConfig struct {
	Currency           string        `envconfig:"BUYTOWN_PAYMENTS_CURRENCY" default:"INR"`
	GatewayTimeout     time.Duration `envconfig:"BUYTOWN_PAYMENTS_GATEWAY_TIMEOUT" default:"15s"`
	WebhookGuardTTL    time.Duration `envconfig:"BUYTOWN_PAYMENTS_WEBHOOK_GUARD_TTL" default:"720h"`
	ReconcileAfter     time.Duration `envconfig:"BUYTOWN_PAYMENTS_RECONCILE_AFTER" default:"10m"`
	ReconcileBatchSize int           `envconfig:"BUYTOWN_PAYMENTS_RECONCILE_BATCH_SIZE" default:"50"`
}

type PhonePeConfig struct {
	MerchantID  string `envconfig:"BUYTOWN_PHONEPE_MERCHANT_ID"`
	SaltKey     string `envconfig:"BUYTOWN_PHONEPE_SALT_KEY"`
	SaltIndex   string `envconfig:"BUYTOWN_PHONEPE_SALT_INDEX" default:"1"`
	BaseURL     string `envconfig:"BUYTOWN_PHONEPE_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	RedirectURL string `envconfig:"BUYTOWN_PHONEPE_REDIRECT_URL"`
	CallbackURL string `envconfig:"BUYTOWN_PHONEPE_CALLBACK_URL"`
}

// Enabled reports whether enough credentials exist to talk to PhonePe.
func (p PhonePeConfig) Enabled() bool {
	return p.MerchantID != "" && p.SaltKey != ""
}

type StripeConfig struct {
	APIKey     string `envconfig:"BUYTOWN_STRIPE_API_KEY"`
	Secret     string `envconfig:"BUYTOWN_STRIPE_SECRET"`
	Env        string `envconfig:"BUYTOWN_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"BUYTOWN_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"BUYTOWN_STRIPE_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type NotificationsConfig struct {
	Driver  string        `envconfig:"BUYTOWN_NOTIFICATIONS_DRIVER" default:"log"`
	Timeout time.Duration `envconfig:"BUYTOWN_NOTIFICATIONS_TIMEOUT" default:"5s"`
}

func (n NotificationsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(n.Driver)) {
	case NotificationDriverLog, NotificationDriverPubSub, NotificationDriverKafka:
		return nil
	default:
		return fmt.Errorf("%s must be one of log, pubsub, kafka", EnvNotificationsDriver)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BUYTOWN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BUYTOWN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BUYTOWN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"BUYTOWN_PUBSUB_NOTIFICATION_TOPIC" default:"buytown-order-notifications"`
}

type KafkaConfig struct {
	Brokers           []string `envconfig:"BUYTOWN_KAFKA_BROKERS"`
	NotificationTopic string   `envconfig:"BUYTOWN_KAFKA_NOTIFICATION_TOPIC" default:"buytown.order-notifications"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BUYTOWN_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"BUYTOWN_CRON_LOCK_TTL" default:"5m"`
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
