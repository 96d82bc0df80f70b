package config

// EnvPrefix is passed to envconfig; every field also carries an explicit name.
const EnvPrefix = "BUYTOWN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	NotificationDriverLog    = "log"
	NotificationDriverPubSub = "pubsub"
	NotificationDriverKafka  = "kafka"
)

const (
	EnvAppEnv                 = "BUYTOWN_APP_ENV"
	EnvPort                   = "BUYTOWN_APP_PORT"
	EnvDBDSN                  = "BUYTOWN_DB_DSN"
	EnvDBHost                 = "BUYTOWN_DB_HOST"
	EnvDBUser                 = "BUYTOWN_DB_USER"
	EnvDBPassword             = "BUYTOWN_DB_PASSWORD"
	EnvDBName                 = "BUYTOWN_DB_NAME"
	EnvRedisURL               = "BUYTOWN_REDIS_URL"
	EnvJWTSecret              = "BUYTOWN_JWT_SECRET"
	EnvJWTIssuer              = "BUYTOWN_JWT_ISSUER"
	EnvCheckoutDefaultTaxRate = "BUYTOWN_CHECKOUT_DEFAULT_TAX_RATE"
	EnvNotificationsDriver    = "BUYTOWN_NOTIFICATIONS_DRIVER"
	EnvKafkaBrokers           = "BUYTOWN_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
