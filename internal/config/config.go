package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. GROWPOINT_DB_BACKEND.
const EnvPrefix = "GROWPOINT"

// Storage backends understood by the server.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Insight providers.
const (
	InsightEdge   = "edge"
	InsightOpenAI = "openai"
)

const devJWTSecret = "growpoint-dev-secret"

// Config is the resolved server configuration.
type Config struct {
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log-level"`
	Addr      string `mapstructure:"addr"`
	Commit    string `mapstructure:"commit"`
	BuildTime string `mapstructure:"build-time"`
	StaticDir string `mapstructure:"static-dir"`
	// DevFrontendURL proxies non-API paths to a frontend dev server when StaticDir is empty.
	DevFrontendURL string   `mapstructure:"dev-frontend-url"`
	CORSOrigins    []string `mapstructure:"cors-origins"`

	DBBackend     string `mapstructure:"db-backend"`
	DBDSN         string `mapstructure:"db-dsn"`
	MongoDatabase string `mapstructure:"mongo-database"`
	MigrationsDir string `mapstructure:"migrations-dir"`

	JWTSecret string        `mapstructure:"jwt-secret"`
	TokenTTL  time.Duration `mapstructure:"token-ttl"`
	// PrivilegedCodeHash is the bcrypt hash HR and Admin access codes are checked against.
	PrivilegedCodeHash string `mapstructure:"privileged-code-hash"`

	InsightProvider string        `mapstructure:"insight-provider"`
	InsightURL      string        `mapstructure:"insight-url"`
	SpeechURL       string        `mapstructure:"speech-url"`
	EdgeAPIKey      string        `mapstructure:"edge-api-key"`
	EdgeTimeout     time.Duration `mapstructure:"edge-timeout"`
	EdgeMaxRetry    time.Duration `mapstructure:"edge-max-retry"`
	OpenAIKey       string        `mapstructure:"openai-key"`
	OpenAIBaseURL   string        `mapstructure:"openai-base-url"`
	OpenAIModel     string        `mapstructure:"openai-model"`
}

// Local reports whether the process runs in a developer environment.
func (c *Config) Local() bool {
	return c.Env == "" || c.Env == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log-level", "info")
	v.SetDefault("addr", ":8080")
	v.SetDefault("commit", "")
	v.SetDefault("build-time", "")
	v.SetDefault("static-dir", "")
	v.SetDefault("dev-frontend-url", "")
	v.SetDefault("cors-origins", []string{})
	v.SetDefault("db-backend", BackendSQLite)
	v.SetDefault("db-dsn", "growpoint.db")
	v.SetDefault("mongo-database", "growpoint")
	v.SetDefault("migrations-dir", "")
	v.SetDefault("jwt-secret", "")
	v.SetDefault("token-ttl", 12*time.Hour)
	v.SetDefault("privileged-code-hash", "")
	v.SetDefault("insight-provider", InsightEdge)
	v.SetDefault("insight-url", "")
	v.SetDefault("speech-url", "")
	v.SetDefault("edge-api-key", "")
	v.SetDefault("edge-timeout", 30*time.Second)
	v.SetDefault("edge-max-retry", 20*time.Second)
	v.SetDefault("openai-key", "")
	v.SetDefault("openai-base-url", "")
	v.SetDefault("openai-model", "gpt-4o-mini")
}

// Load merges defaults, an optional config file, .env and GROWPOINT_* variables.
// An empty configFile falls back to GROWPOINT_CONFIG, then ./growpoint.yaml.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("growpoint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.DBBackend = strings.ToLower(strings.TrimSpace(c.DBBackend))
	switch c.DBBackend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("unsupported db-backend %q", c.DBBackend)
	}
	if c.DBBackend != BackendMemory && strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("db-dsn is required for the %s backend", c.DBBackend)
	}

	c.InsightProvider = strings.ToLower(strings.TrimSpace(c.InsightProvider))
	switch c.InsightProvider {
	case InsightEdge, InsightOpenAI:
	default:
		return fmt.Errorf("unsupported insight-provider %q", c.InsightProvider)
	}

	if c.JWTSecret == "" {
		if !c.Local() {
			return errors.New("jwt-secret must be set outside the local environment")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 12 * time.Hour
	}
	return nil
}
