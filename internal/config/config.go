package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`

	DynamoTables DynamoTables

	S3BucketName  string `env:"S3_BUCKET_NAME" envDefault:"turo-user-files"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"turo-backend"`
	SignInTokenTTL    time.Duration `env:"SIGNIN_TOKEN_TTL" envDefault:"1h"`
	IDTokenTTL        time.Duration `env:"ID_TOKEN_TTL" envDefault:"1h"`

	OTPTTL time.Duration `env:"OTP_TTL" envDefault:"10m"`
	// OTPRetention keeps expired passcode rows this long before the TTL reaper may drop them.
	OTPRetention time.Duration `env:"OTP_RETENTION" envDefault:"24h"`

	MailProvider string `env:"MAIL_PROVIDER" envDefault:"smtp"` // "smtp" | "brevo"
	MailFrom     string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"TURO"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"1025"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	BrevoAPIKey  string `env:"BREVO_API_KEY"`

	AuditTopicARN string `env:"AUDIT_TOPIC_ARN"`
	BackfillKey   string `env:"BACKFILL_KEY"`

	StatsResetTimezone string        `env:"STATS_RESET_TIMEZONE" envDefault:"Asia/Manila"`
	StatsResetHour     int           `env:"STATS_RESET_HOUR" envDefault:"0"`
	StreamPollInterval time.Duration `env:"STREAM_POLL_INTERVAL" envDefault:"2s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	// TrustProxyHeaders takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	OTPs                string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
	Identities          string `env:"DYNAMO_TABLE_IDENTITIES" envDefault:"identities"`
	Users               string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	UserDetails         string `env:"DYNAMO_TABLE_USER_DETAILS" envDefault:"user_details"`
	MentorVerifications string `env:"DYNAMO_TABLE_MENTOR_VERIFICATIONS" envDefault:"mentor_verifications"`
	SysStats            string `env:"DYNAMO_TABLE_SYS_STATS" envDefault:"sys_stats"`
	DailyStats          string `env:"DYNAMO_TABLE_DAILY_STATS" envDefault:"daily_stats"`
	Activities          string `env:"DYNAMO_TABLE_ACTIVITIES" envDefault:"activities"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// StatsResetLocation resolves the timezone the nightly stats reset runs in.
func (c *Config) StatsResetLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StatsResetTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.StatsResetTimezone, err)
	}
	return loc, nil
}
