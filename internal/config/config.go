package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`

	// OTPTokenSecret signs the correlation token carried in the otp cookie.
	OTPTokenSecret string        `env:"OTP_TOKEN_SECRET,required,notEmpty"`
	OTPTokenTTL    time.Duration `env:"OTP_TOKEN_TTL" envDefault:"2m"`
	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"2m"`
	OTPMaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	OTPExposeCode  bool          `env:"OTP_EXPOSE_CODE" envDefault:"false"`
	PhoneRegion    string        `env:"PHONE_REGION" envDefault:"IR"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`

	DeliveryMode    string        `env:"DELIVERY_MODE" envDefault:"log"` // "log" | "live"
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"10s"`
	SNSRegion       string        `env:"SNS_REGION" envDefault:"us-east-1"`
	SMTPHost        string        `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort        string        `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom        string        `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPUsername    string        `env:"SMTP_USERNAME"`
	SMTPPassword    string        `env:"SMTP_PASSWORD"`

	// AllowedOrigins lists the exact origins allowed to call with credentials.
	// Empty means same-origin only.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	// TrustProxyHeaders keys the rate limiter on X-Forwarded-For/X-Real-Ip.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts           string `env:"DYNAMO_TABLE_ACCOUNTS" envDefault:"accounts"`
	AccountIdentifiers string `env:"DYNAMO_TABLE_ACCOUNT_IDENTIFIERS" envDefault:"account_identifiers"`
	OTPs               string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
}

const (
	DeliveryModeLog  = "log"
	DeliveryModeLive = "live"
)

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OTPTokenTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("OTP_TTL and OTP_TOKEN_TTL must be positive")
	}
	// The correlation token must never outlive the code it points at.
	if c.OTPTokenTTL > c.OTPTTL {
		return fmt.Errorf("OTP_TOKEN_TTL (%s) must not exceed OTP_TTL (%s)", c.OTPTokenTTL, c.OTPTTL)
	}
	if c.IsProduction() && len(c.OTPTokenSecret) < 32 {
		return errors.New("OTP_TOKEN_SECRET must be at least 32 bytes in production")
	}
	if c.OTPMaxAttempts <= 0 {
		return errors.New("OTP_MAX_ATTEMPTS must be positive")
	}
	for _, o := range c.AllowedOrigins {
		if strings.Contains(o, "*") {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q: wildcards are not allowed with credentialed CORS", o)
		}
	}
	switch c.DeliveryMode {
	case DeliveryModeLog, DeliveryModeLive:
	default:
		return fmt.Errorf("unknown DELIVERY_MODE %q", c.DeliveryMode)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
