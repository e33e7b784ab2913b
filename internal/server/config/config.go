// Package config handles configuration for the calculator server,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import "time"

// Storage backends understood by the repository manager.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Materials log sinks.
const (
	SinkFile = "file"
	SinkS3   = "s3"
)

// Config holds runtime settings for the calculator server.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - BaseURL: public URL used in remediation links and payment callbacks.
//   - Environment: "development" exposes error detail and enables the log notifier.
//   - StorageBackend / DatabaseDSN / MongoURI / MongoDatabase: entitlement store.
//   - RedisAddr / RedisPassword / RedisDB: optional shared challenge store.
//   - SecretKey: HMAC secret for signing session tokens. Do not use defaults in prod.
//   - FreeCalculations, SubscriptionPrice, SubscriptionPeriod, Currency: paywall terms.
//   - CodeTTL, MaxVerifyAttempts, CodeRequestLimit, CodeRequestWindow: verifier limits.
//   - SessionTTL: absolute lifetime of a login session.
//   - PaystackSecretKey / PaystackBaseURL: payment provider.
//   - SMTP*: notifier settings.
//   - MaterialsSink / MaterialsLogPath / S3*: materials audit trail.
type Config struct {
	HTTPAddr    string
	BaseURL     string
	Environment string
	LogLevel    string
	LogFormat   string

	StorageBackend string
	DatabaseDSN    string
	MongoURI       string
	MongoDatabase  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SecretKey  string
	SessionTTL time.Duration

	FreeCalculations   int64
	SubscriptionPrice  int64
	SubscriptionPeriod time.Duration
	Currency           string

	CodeTTL           time.Duration
	MaxVerifyAttempts int
	CodeRequestLimit  int
	CodeRequestWindow time.Duration
	SweepInterval     time.Duration

	PaystackSecretKey string
	PaystackBaseURL   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	MaterialsSink    string
	MaterialsLogPath string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and provider keys must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.BaseURL = "http://localhost:3000"
	c.Environment = "development"
	c.LogLevel = "info"
	c.LogFormat = "text"

	c.StorageBackend = BackendSQLite
	c.DatabaseDSN = "file:jengacalc.db?_pragma=busy_timeout(5000)"
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "construction_calc"

	c.SecretKey = "secretKey"
	c.SessionTTL = 24 * time.Hour

	c.FreeCalculations = 3
	c.SubscriptionPrice = 50000
	c.SubscriptionPeriod = 30 * 24 * time.Hour
	c.Currency = "KES"

	c.CodeTTL = 15 * time.Minute
	c.MaxVerifyAttempts = 5
	c.CodeRequestLimit = 10
	c.CodeRequestWindow = time.Hour
	c.SweepInterval = 5 * time.Minute

	c.PaystackBaseURL = "https://api.paystack.co"

	c.SMTPPort = 587
	c.SMTPFrom = "no-reply@jengacalc.co.ke"

	c.MaterialsSink = SinkFile
	c.MaterialsLogPath = "materials.txt"
	c.S3Bucket = "materials"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// IsDevelopment reports whether internal error detail may be shown to callers.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment, and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
