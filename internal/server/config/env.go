package config

import "github.com/jengacalc/jengacalc/internal/flagx"

// parseEnv overlays values from environment variables. Secrets are normally
// supplied this way rather than on the command line.
func parseEnv(c *Config) {
	flagx.EnvString(&c.HTTPAddr, "HTTP_ADDR")
	flagx.EnvString(&c.BaseURL, "BASE_URL")
	flagx.EnvString(&c.Environment, "APP_ENV")
	flagx.EnvString(&c.LogLevel, "LOG_LEVEL")
	flagx.EnvString(&c.LogFormat, "LOG_FORMAT")

	flagx.EnvString(&c.StorageBackend, "STORAGE_BACKEND")
	flagx.EnvString(&c.DatabaseDSN, "DATABASE_DSN")
	flagx.EnvString(&c.MongoURI, "MONGO_URI")
	flagx.EnvString(&c.MongoDatabase, "MONGO_DATABASE")

	flagx.EnvString(&c.RedisAddr, "REDIS_ADDR")
	flagx.EnvString(&c.RedisPassword, "REDIS_PASSWORD")
	flagx.EnvInt(&c.RedisDB, "REDIS_DB")

	flagx.EnvString(&c.SecretKey, "SESSION_SECRET")
	flagx.EnvDuration(&c.SessionTTL, "SESSION_TTL")

	flagx.EnvInt64(&c.FreeCalculations, "FREE_CALCULATIONS")
	flagx.EnvInt64(&c.SubscriptionPrice, "SUBSCRIPTION_PRICE")
	flagx.EnvDuration(&c.SubscriptionPeriod, "SUBSCRIPTION_PERIOD")
	flagx.EnvString(&c.Currency, "CURRENCY")

	flagx.EnvDuration(&c.CodeTTL, "CODE_TTL")
	flagx.EnvInt(&c.MaxVerifyAttempts, "MAX_VERIFY_ATTEMPTS")
	flagx.EnvInt(&c.CodeRequestLimit, "CODE_REQUEST_LIMIT")
	flagx.EnvDuration(&c.CodeRequestWindow, "CODE_REQUEST_WINDOW")
	flagx.EnvDuration(&c.SweepInterval, "SWEEP_INTERVAL")

	flagx.EnvString(&c.PaystackSecretKey, "PAYSTACK_SECRET_KEY")
	flagx.EnvString(&c.PaystackBaseURL, "PAYSTACK_BASE_URL")

	flagx.EnvString(&c.SMTPHost, "SMTP_HOST")
	flagx.EnvInt(&c.SMTPPort, "SMTP_PORT")
	flagx.EnvString(&c.SMTPUser, "EMAIL_USER")
	flagx.EnvString(&c.SMTPPassword, "EMAIL_PASSWORD")
	flagx.EnvString(&c.SMTPFrom, "EMAIL_FROM")

	flagx.EnvString(&c.MaterialsSink, "MATERIALS_SINK")
	flagx.EnvString(&c.MaterialsLogPath, "MATERIALS_LOG_PATH")
	flagx.EnvString(&c.S3RootUser, "S3_ROOT_USER")
	flagx.EnvString(&c.S3RootPassword, "S3_ROOT_PASSWORD")
	flagx.EnvString(&c.S3Bucket, "S3_BUCKET")
	flagx.EnvString(&c.S3Region, "S3_REGION")
	flagx.EnvString(&c.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}
