package config

import (
	"encoding/json"
	"os"

	"github.com/jengacalc/jengacalc/internal/flagx"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	BaseURL     string `json:"base_url"`
	Environment string `json:"environment"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`

	StorageBackend string `json:"storage_backend"`
	DatabaseDSN    string `json:"database_dsn"`
	MongoURI       string `json:"mongo_uri"`
	MongoDatabase  string `json:"mongo_database"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	SecretKey  string         `json:"secret_key"`
	SessionTTL timex.Duration `json:"session_ttl"`

	FreeCalculations   int64          `json:"free_calculations"`
	SubscriptionPrice  int64          `json:"subscription_price"`
	SubscriptionPeriod timex.Duration `json:"subscription_period"`
	Currency           string         `json:"currency"`

	CodeTTL           timex.Duration `json:"code_ttl"`
	MaxVerifyAttempts int            `json:"max_verify_attempts"`
	CodeRequestLimit  int            `json:"code_request_limit"`
	CodeRequestWindow timex.Duration `json:"code_request_window"`
	SweepInterval     timex.Duration `json:"sweep_interval"`

	PaystackSecretKey string `json:"paystack_secret_key"`
	PaystackBaseURL   string `json:"paystack_base_url"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	MaterialsSink    string `json:"materials_sink"`
	MaterialsLogPath string `json:"materials_log_path"`
	S3RootUser       string `json:"s3_root_user"`
	S3RootPassword   string `json:"s3_root_password"`
	S3Bucket         string `json:"s3_bucket"`
	S3Region         string `json:"s3_region"`
	S3BaseEndpoint   string `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config (or JENGACALC_CONFIG) and
// overlays every non-zero value onto config. Missing keys keep the values
// already present. An unreadable file or invalid JSON panics, since the
// server must not start with a half-applied configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setNumber(&config.RedisDB, c.RedisDB)

	setString(&config.SecretKey, c.SecretKey)
	setNumber(&config.SessionTTL, c.SessionTTL.Duration)

	setNumber(&config.FreeCalculations, c.FreeCalculations)
	setNumber(&config.SubscriptionPrice, c.SubscriptionPrice)
	setNumber(&config.SubscriptionPeriod, c.SubscriptionPeriod.Duration)
	setString(&config.Currency, c.Currency)

	setNumber(&config.CodeTTL, c.CodeTTL.Duration)
	setNumber(&config.MaxVerifyAttempts, c.MaxVerifyAttempts)
	setNumber(&config.CodeRequestLimit, c.CodeRequestLimit)
	setNumber(&config.CodeRequestWindow, c.CodeRequestWindow.Duration)
	setNumber(&config.SweepInterval, c.SweepInterval.Duration)

	setString(&config.PaystackSecretKey, c.PaystackSecretKey)
	setString(&config.PaystackBaseURL, c.PaystackBaseURL)

	setString(&config.SMTPHost, c.SMTPHost)
	setNumber(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)

	setString(&config.MaterialsSink, c.MaterialsSink)
	setString(&config.MaterialsLogPath, c.MaterialsLogPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNumber[T ~int | ~int64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
