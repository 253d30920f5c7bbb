package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timeouts, quotas, queue names), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Comms     CommsConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Riyadh"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers          []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	TransactionTopic string   `envconfig:"KAFKA_TRANSACTION_TOPIC" default:"amenpay.transactions"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Locale"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Riyadh"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"10800"` // 3*60*60
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Lax"`
}

// RateLimitConfig carries per-category quotas plus the global limiter policy.
type RateLimitConfig struct {
	FailOpen       bool     `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`
	WhitelistedIPs []string `envconfig:"RATE_LIMIT_WHITELIST_IPS" default:""`
	ExemptPaths    []string `envconfig:"RATE_LIMIT_EXEMPT_PATHS" default:"/health,/ping"`

	AuthMaxAttempts       int `envconfig:"RATE_LIMIT_AUTH_MAX" default:"5"`
	AuthDecayMinutes      int `envconfig:"RATE_LIMIT_AUTH_DECAY_MIN" default:"15"`
	OTPMaxAttempts        int `envconfig:"RATE_LIMIT_OTP_MAX" default:"3"`
	OTPDecayMinutes       int `envconfig:"RATE_LIMIT_OTP_DECAY_MIN" default:"5"`
	PaymentMaxAttempts    int `envconfig:"RATE_LIMIT_PAYMENT_MAX" default:"10"`
	PaymentDecayMinutes   int `envconfig:"RATE_LIMIT_PAYMENT_DECAY_MIN" default:"1"`
	APIMaxAttempts        int `envconfig:"RATE_LIMIT_API_MAX" default:"60"`
	APIDecayMinutes       int `envconfig:"RATE_LIMIT_API_DECAY_MIN" default:"1"`
	SMSMaxAttempts        int `envconfig:"RATE_LIMIT_SMS_MAX" default:"5"`
	SMSDecayMinutes       int `envconfig:"RATE_LIMIT_SMS_DECAY_MIN" default:"1"`
	FileUploadMaxAttempts int `envconfig:"RATE_LIMIT_FILE_UPLOAD_MAX" default:"20"`
	FileUploadDecayMin    int `envconfig:"RATE_LIMIT_FILE_UPLOAD_DECAY_MIN" default:"1"`
	DefaultMaxAttempts    int `envconfig:"RATE_LIMIT_DEFAULT_MAX" default:"30"`
	DefaultDecayMinutes   int `envconfig:"RATE_LIMIT_DEFAULT_DECAY_MIN" default:"1"`
}

type JobsConfig struct {
	PaymentTries            int           `envconfig:"PAYMENT_JOB_TRIES" default:"3"`
	PaymentTimeout          time.Duration `envconfig:"PAYMENT_JOB_TIMEOUT" default:"300s"`
	PaymentMaxExceptions    int           `envconfig:"PAYMENT_JOB_MAX_EXCEPTIONS" default:"3"`
	PaymentDefaultGateway   string        `envconfig:"PAYMENT_DEFAULT_GATEWAY" default:"mada"`
	NotifyTries             int           `envconfig:"NOTIFICATION_JOB_TRIES" default:"3"`
	NotifyTimeout           time.Duration `envconfig:"NOTIFICATION_JOB_TIMEOUT" default:"120s"`
	NotifyMaxExceptions     int           `envconfig:"NOTIFICATION_JOB_MAX_EXCEPTIONS" default:"3"`
	NotifyDefaultChannels   []string      `envconfig:"NOTIFICATION_DEFAULT_CHANNELS" default:"push,email"`
	NotifyDefaultPriority   string        `envconfig:"NOTIFICATION_DEFAULT_PRIORITY" default:"normal"`
	OutboxPollInterval      time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize         int32         `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	WorkerMetricsPort       string        `envconfig:"WORKER_METRICS_PORT" default:"9091"`
}

// CommsConfig holds the delivery provider credentials. Empty credentials put
// the matching provider in dry-run mode, which logs instead of sending.
type CommsConfig struct {
	TwilioAccountSID string        `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioAuthToken  string        `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	TwilioFromNumber string        `envconfig:"TWILIO_FROM_NUMBER" default:""`
	SendgridAPIKey   string        `envconfig:"SENDGRID_API_KEY" default:""`
	SendgridFromName string        `envconfig:"SENDGRID_FROM_NAME" default:"Amen Pay"`
	SendgridFromMail string        `envconfig:"SENDGRID_FROM_EMAIL" default:"no-reply@amenpay.sa"`
	PushEndpoint     string        `envconfig:"PUSH_ENDPOINT" default:""`
	PushServerKey    string        `envconfig:"PUSH_SERVER_KEY" default:""`
	Timeout          time.Duration `envconfig:"COMMS_TIMEOUT" default:"10s"`
}

// GatewayConfig maps gateway types to their processing endpoints.
type GatewayConfig struct {
	Endpoints map[string]string `envconfig:"GATEWAY_ENDPOINTS" default:""`
	APIKey    string            `envconfig:"GATEWAY_API_KEY" default:""`
	Timeout   time.Duration     `envconfig:"GATEWAY_TIMEOUT" default:"30s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Riyadh",
		},
		Redis: RedisConfig{
			Addr: "localhost:16379",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Riyadh",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 10800,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "24h",
		},
		RateLimit: RateLimitConfig{
			FailOpen:              true,
			ExemptPaths:           []string{"/health", "/ping"},
			AuthMaxAttempts:       5,
			AuthDecayMinutes:      15,
			OTPMaxAttempts:        3,
			OTPDecayMinutes:       5,
			PaymentMaxAttempts:    10,
			PaymentDecayMinutes:   1,
			APIMaxAttempts:        60,
			APIDecayMinutes:       1,
			SMSMaxAttempts:        5,
			SMSDecayMinutes:       1,
			FileUploadMaxAttempts: 20,
			FileUploadDecayMin:    1,
			DefaultMaxAttempts:    30,
			DefaultDecayMinutes:   1,
		},
		Jobs: JobsConfig{
			PaymentTries:          3,
			PaymentTimeout:        300 * time.Second,
			PaymentMaxExceptions:  3,
			PaymentDefaultGateway: "mada",
			NotifyTries:           3,
			NotifyTimeout:         120 * time.Second,
			NotifyMaxExceptions:   3,
			NotifyDefaultChannels: []string{"push", "email"},
			NotifyDefaultPriority: "normal",
			OutboxPollInterval:    time.Second,
			OutboxBatchSize:       100,
		},
	}
}
