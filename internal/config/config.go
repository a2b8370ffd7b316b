package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Session     SessionConfig   `yaml:"session"`
	Identity    IdentityConfig  `yaml:"identity"`
	Admin       AdminConfig     `yaml:"admin"`
	Payments    PaymentsConfig  `yaml:"payments"`
	Embedding   ProviderConfig  `yaml:"embedding"`
	Translation ProviderConfig  `yaml:"translation"`
	Redis       RedisConfig     `yaml:"redis"`
	Storage     StorageConfig   `yaml:"storage"`
	SMTP        SMTPConfig      `yaml:"smtp"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	CORS        CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`

	// PublicURL is the frontend origin used for links in emails.
	PublicURL string `yaml:"public_url"`

	// AuditRetentionDays bounds how long audit entries are kept; 0 keeps them forever.
	AuditRetentionDays int `yaml:"audit_retention_days"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type SessionConfig struct {
	CookieName   string `yaml:"cookie_name"`
	TTLHours     int    `yaml:"ttl_hours"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// IdentityConfig describes the hosted identity provider whose ID tokens are
// exchanged for sessions.
type IdentityConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	Secret   string `yaml:"secret"`
}

type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type PaymentsConfig struct {
	SecretKey          string  `yaml:"secret_key"`
	PlatformFeePercent float64 `yaml:"platform_fee_percent"`
	DefaultCurrency    string  `yaml:"default_currency"`
}

// ProviderConfig selects a remote AI provider: openai, azure, ollama, gemini
// or anthropic depending on the consumer.
type ProviderConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// Enabled reports whether the provider has enough settings to be called.
func (p ProviderConfig) Enabled() bool {
	if p.Provider == "" {
		return false
	}
	return p.Provider == "ollama" || p.APIKey != ""
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig points at an S3-compatible bucket for uploaded files.
type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// Load reads configPath (default config.yaml), then a .env file if present,
// then environment overrides.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "8080",
			Mode:               "debug",
			LogLevel:           "info",
			PublicURL:          "http://localhost:5173",
			AuditRetentionDays: 90,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "marketplace.db",
		},
		Session: SessionConfig{
			CookieName: "sid",
			TTLHours:   24 * 7,
		},
		Admin: AdminConfig{
			Email: "admin@localhost",
		},
		Payments: PaymentsConfig{
			PlatformFeePercent: 10,
			DefaultCurrency:    "USD",
		},
		Embedding: ProviderConfig{
			Model: "text-embedding-3-small",
		},
		Translation: ProviderConfig{},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Storage: StorageConfig{
			Region: "auto",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if publicURL := os.Getenv("PUBLIC_URL"); publicURL != "" {
		c.Server.PublicURL = strings.TrimRight(publicURL, "/")
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("IDENTITY_SECRET"); secret != "" {
		c.Identity.Secret = secret
	}
	if issuer := os.Getenv("IDENTITY_ISSUER"); issuer != "" {
		c.Identity.Issuer = issuer
	}
	if audience := os.Getenv("IDENTITY_AUDIENCE"); audience != "" {
		c.Identity.Audience = audience
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		c.Admin.Email = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		c.Admin.Password = password
	}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		c.Payments.SecretKey = key
	}
	if fee := os.Getenv("PLATFORM_FEE_PERCENT"); fee != "" {
		if v, err := strconv.ParseFloat(fee, 64); err == nil {
			c.Payments.PlatformFeePercent = v
		}
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		c.Embedding.Provider = provider
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = apiKey
		}
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		if c.Translation.Provider == "" {
			c.Translation.Provider = "anthropic"
		}
		c.Translation.APIKey = apiKey
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if keyID := os.Getenv("S3_ACCESS_KEY_ID"); keyID != "" {
		c.Storage.AccessKeyID = keyID
	}
	if secret := os.Getenv("S3_SECRET_ACCESS_KEY"); secret != "" {
		c.Storage.SecretAccessKey = secret
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.SMTP.Enabled = true
		c.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			c.SMTP.Port = v
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		c.SMTP.Username = user
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		c.SMTP.Password = password
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		c.SMTP.From = from
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.CORS.AllowOrigins = strings.Split(origins, ",")
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
