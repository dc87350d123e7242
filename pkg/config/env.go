package config

const (
	// EnvPrefix namespaces every variable read by Load.
	EnvPrefix = "DIAGNOSIS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv            = "DIAGNOSIS_APP_ENV"
	EnvPort              = "DIAGNOSIS_APP_PORT"
	EnvLogLevel          = "DIAGNOSIS_LOG_LEVEL"
	EnvCORSOrigins       = "DIAGNOSIS_CORS_ORIGINS"
	EnvBackendBaseURL    = "DIAGNOSIS_BACKEND_BASE_URL"
	EnvBackendTimeout    = "DIAGNOSIS_BACKEND_TIMEOUT"
	EnvRazorpayKeyID     = "DIAGNOSIS_RAZORPAY_KEY_ID"
	EnvRazorpayScriptURL = "DIAGNOSIS_RAZORPAY_SCRIPT_URL"
	EnvRedisURL          = "DIAGNOSIS_REDIS_URL"
	EnvRedisCartTTL      = "DIAGNOSIS_REDIS_CART_TTL"
	EnvDBDSN             = "DIAGNOSIS_DB_DSN"
	EnvDBDriver          = "DIAGNOSIS_DB_DRIVER"
	EnvAutoMigrate       = "DIAGNOSIS_AUTO_MIGRATE"
	EnvPredictMaxText    = "DIAGNOSIS_PREDICT_MAX_TEXT_LENGTH"
)
