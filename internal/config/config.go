package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
// It is constructed once in main and passed by injection; no package reads
// the process environment after startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Google   GoogleConfig
	Auth     AuthConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

// AuthConfig holds token, OTP and cookie settings for the auth module.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtsecret"`

	// AccessTokenTTL bounds the stateless access token. Revoking sessions
	// cannot recall an already-issued access token, so keeping this equal to
	// RefreshTokenTTL approximates hard-logout semantics.
	AccessTokenTTL  time.Duration `mapstructure:"accesstokenttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshtokenttl"`
	OTPTTL          time.Duration `mapstructure:"otpttl"`

	BcryptCost int `mapstructure:"bcryptcost"`

	CookieDomain   string `mapstructure:"cookiedomain"`
	CookieSameSite string `mapstructure:"cookiesamesite"`

	// SweepInterval drives the background deletion of dead refresh-token and
	// OTP rows.
	SweepInterval time.Duration `mapstructure:"sweepinterval"`

	// RateLimitPerMinute caps requests per client IP on sensitive auth
	// endpoints (login, OTP verify, resend).
	RateLimitPerMinute int `mapstructure:"ratelimitperminute"`
}

// IsProduction reports whether the server runs with production hardening
// (Secure cookies, strict transport).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// Load creates a new Config object from the .env file and environment variables.
func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into the process environment so BindEnv sees file-based values.
	if err := godotenv.Load(); err != nil {
		log.Printf("godotenv could not load .env: %v", err)
	}

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("auth.jwtsecret", "AUTH_JWT_SECRET")
	_ = viper.BindEnv("auth.accesstokenttl", "AUTH_ACCESS_TOKEN_TTL")
	_ = viper.BindEnv("auth.refreshtokenttl", "AUTH_REFRESH_TOKEN_TTL")
	_ = viper.BindEnv("auth.otpttl", "AUTH_OTP_TTL")
	_ = viper.BindEnv("auth.bcryptcost", "AUTH_BCRYPT_COST")
	_ = viper.BindEnv("auth.cookiedomain", "AUTH_COOKIE_DOMAIN")
	_ = viper.BindEnv("auth.cookiesamesite", "AUTH_COOKIE_SAMESITE")
	_ = viper.BindEnv("auth.sweepinterval", "AUTH_SWEEP_INTERVAL")
	_ = viper.BindEnv("auth.ratelimitperminute", "AUTH_RATE_LIMIT_PER_MINUTE")

	if err := viper.ReadInConfig(); err != nil {
		// Proceed without a .env file when everything is set via environment
		// variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("error reading config file: %s", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("unable to decode config into struct: %v", err)
	}

	applyDefaults(&cfg)

	if cfg.Auth.JWTSecret == "" {
		log.Println("AUTH_JWT_SECRET is not set")
		return nil
	}

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTokenTTL <= 0 {
		// Matches the access-token lifetime so that cutting off refresh
		// capability bounds the whole session length.
		cfg.Auth.RefreshTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.OTPTTL <= 0 {
		cfg.Auth.OTPTTL = 10 * time.Minute
	}
	if cfg.Auth.BcryptCost < 12 {
		cfg.Auth.BcryptCost = 12
	}
	if cfg.Auth.CookieSameSite == "" {
		cfg.Auth.CookieSameSite = "lax"
	}
	if cfg.Auth.SweepInterval <= 0 {
		cfg.Auth.SweepInterval = time.Hour
	}
	if cfg.Auth.RateLimitPerMinute <= 0 {
		cfg.Auth.RateLimitPerMinute = 30
	}
}
