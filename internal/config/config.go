package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	UploadURL    string
	APIURL       string
	CampaignID   string
	ClaimTimeout time.Duration

	CompressMaxBytes     int64
	CompressMaxDimension int

	UploadBackend   string // "http" posts to UploadURL, "s3" writes to S3BucketName
	RecoveryBackend string // "file" or "dynamo"
	RecoveryDir     string // file backend: one slot file per device
	DeviceIDFile    string

	AWSRegion       string
	AWSEndpointURL  string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID  string
	AWSSecretKey    string
	S3BucketName    string
	S3PublicBaseURL string
	DynamoTables    DynamoTables

	HandoffSecret string
	HandoffTTL    time.Duration

	SNSEnabled     bool
	SNSRegion      string
	SNSCountryCode string // prefixed to local phone numbers

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // IPs or CIDRs whose forwarding headers are honoured
	FormTTL        time.Duration
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Recovery string
}

const (
	UploadBackendHTTP = "http"
	UploadBackendS3   = "s3"

	RecoveryBackendFile   = "file"
	RecoveryBackendDynamo = "dynamo"
)

// Load reads all configuration from environment variables.
func Load() *Config {
	stateDir := defaultStateDir()
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UploadURL:    getEnv("UPLOAD_URL", "http://localhost:8080/upload.php"),
		APIURL:       strings.TrimRight(getEnv("API_URL", "http://localhost:4000"), "/"),
		CampaignID:   getEnv("CAMPAIGN_ID", "default"),
		ClaimTimeout: getEnvDuration("CLAIM_TIMEOUT_SECONDS", 10*time.Second, time.Second),

		CompressMaxBytes:     int64(getEnvInt("COMPRESS_MAX_BYTES", 1<<20)),
		CompressMaxDimension: getEnvInt("COMPRESS_MAX_DIMENSION", 1280),

		UploadBackend:   strings.ToLower(getEnv("UPLOAD_BACKEND", UploadBackendHTTP)),
		RecoveryBackend: strings.ToLower(getEnv("RECOVERY_BACKEND", RecoveryBackendFile)),
		RecoveryDir:     getEnv("RECOVERY_DIR", stateDir+"/recovery"),
		DeviceIDFile:    getEnv("DEVICE_ID_FILE", stateDir+"/device_id"),

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:  getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:  getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:    getEnv("S3_BUCKET_NAME", "promo-vouchers"),
		S3PublicBaseURL: strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		DynamoTables: DynamoTables{
			Recovery: getEnv("DYNAMO_TABLE_RECOVERY", "prize_recovery"),
		},

		HandoffSecret: getEnv("HANDOFF_SECRET", ""),
		HandoffTTL:    getEnvDuration("HANDOFF_TTL_MINUTES", 30*time.Minute, time.Minute),

		SNSEnabled:     getEnvBool("SNS_ENABLED", false),
		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		SNSCountryCode: getEnv("SNS_COUNTRY_CODE", "+51"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: strings.Split(getEnv("TRUSTED_PROXIES", ""), ","),
		FormTTL:        getEnvDuration("FORM_TTL_MINUTES", 30*time.Minute, time.Minute),
	}
}

// ClaimURL is the claim endpoint derived from APIURL.
func (c *Config) ClaimURL() string {
	return c.APIURL + "/api/v1/claim"
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/promo-claim"
	}
	return ".promo-claim"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, fallback, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
