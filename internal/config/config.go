package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "LudoWallet"
	defaultAppEnv         = "development"
	defaultPort           = "3000"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultOTPTTL         = 10 * time.Minute
	defaultLockTTL        = 10 * time.Second
	defaultLoginRateLimit = 5
	defaultMerchantID     = "INDIANPAY10053"
	defaultGatewayBaseURL = "https://indianpay.co.in/admin/paynow"
	defaultRedirectURL    = "https://ludo.ludosixer.com/"
	defaultCountryCode    = "91"
	defaultCORSOrigins    = "*"

	// SettlementImmediate credits a recharge as soon as it is recorded.
	SettlementImmediate = "immediate"
	// SettlementDeferred records a recharge as pending until the gateway calls back.
	SettlementDeferred = "deferred"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret      string
	TokenTTL       time.Duration
	OTPTTL         time.Duration
	LoginRateLimit int
	LockTTL        time.Duration

	MerchantID         string
	GatewayBaseURL     string
	RedirectURL        string
	RechargeSettlement string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	SMSCountryCode    string

	// CORSAllowOrigins is a comma separated origin list for browser clients.
	CORSAllowOrigins string
}

// Load reads configuration values from the environment, after merging a
// .env file from the working directory when one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		MerchantID:         getEnv("INDIANPAY_MERCHANT_ID", defaultMerchantID),
		GatewayBaseURL:     getEnv("INDIANPAY_BASE_URL", defaultGatewayBaseURL),
		RedirectURL:        getEnv("REDIRECT_URL", defaultRedirectURL),
		RechargeSettlement: strings.ToLower(getEnv("RECHARGE_SETTLEMENT", SettlementImmediate)),
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:  os.Getenv("TWILIO_PHONE_NUMBER"),
		SMSCountryCode:     getEnv("SMS_COUNTRY_CODE", defaultCountryCode),
		CORSAllowOrigins:   getEnv("CORS_ALLOW_ORIGINS", defaultCORSOrigins),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv("SHUTDOWN_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv("IDEMPOTENCY_TTL_SECONDS", "IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationFromEnv("", "TOKEN_TTL", defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationFromEnv("", "OTP_TTL", defaultOTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.LockTTL, err = durationFromEnv("", "LOCK_TTL", defaultLockTTL); err != nil {
		return Config{}, err
	}

	cfg.LoginRateLimit = defaultLoginRateLimit
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
		}
		cfg.LoginRateLimit = n
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	switch cfg.RechargeSettlement {
	case SettlementImmediate, SettlementDeferred:
	default:
		return Config{}, fmt.Errorf("invalid RECHARGE_SETTLEMENT %q", cfg.RechargeSettlement)
	}

	if !cfg.IsDevelopment() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the app may run without Postgres and Redis.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// DeferredSettlement reports whether recharges wait for the payment callback.
func (c Config) DeferredSettlement() bool {
	return c.RechargeSettlement == SettlementDeferred
}

// TwilioConfigured reports whether SMS can be sent through Twilio.
func (c Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationFromEnv reads an integer seconds variable first, then a Go
// duration string variable. Either key may be empty.
func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if durationKey != "" {
		if v := os.Getenv(durationKey); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
			}
			return d, nil
		}
	}
	return fallback, nil
}
