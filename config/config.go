package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Progress  ProgressConfig  `mapstructure:"progress"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Port        string `mapstructure:"port"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	AuthEnabled bool   `mapstructure:"auth_enabled"`
	// RequestTimeout bounds one research turn including the answer stream.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server.address required")
	}
	if s.AuthEnabled && strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required when auth is enabled")
	}
	return nil
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type        string        `mapstructure:"type"` // openai, anthropic
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig defines which provider and model serve each pipeline role
type LLMRoutingConfig struct {
	Provider string `mapstructure:"provider"` // key into Providers
	Planning string `mapstructure:"planning"` // model used to build research plans
	Chatting string `mapstructure:"chatting"` // model used to stream the final answer
}

func (l LLMConfig) Validate() error {
	if len(l.Providers) == 0 {
		return fmt.Errorf("llm.providers requires at least one provider")
	}
	for name, p := range l.Providers {
		switch p.Type {
		case "openai", "anthropic":
		default:
			return fmt.Errorf("llm.providers.%s.type %q unsupported", name, p.Type)
		}
	}
	if r := strings.TrimSpace(l.Routing.Provider); r != "" {
		if _, ok := l.Providers[r]; !ok {
			return fmt.Errorf("llm.routing.provider %q not found in llm.providers", r)
		}
	}
	return nil
}

// Selected returns the provider named by routing, or the only configured one.
func (l LLMConfig) Selected() (string, LLMProvider, bool) {
	if name := strings.TrimSpace(l.Routing.Provider); name != "" {
		p, ok := l.Providers[name]
		return name, p, ok
	}
	if len(l.Providers) == 1 {
		for name, p := range l.Providers {
			return name, p, true
		}
	}
	return "", LLMProvider{}, false
}

// ToolsConfig configures the research tool backends
type ToolsConfig struct {
	BraveAPIKey    string        `mapstructure:"brave_api_key"`
	SerperAPIKey   string        `mapstructure:"serper_api_key"`
	MaxResults     int           `mapstructure:"max_results"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UseChromedp    bool          `mapstructure:"use_chromedp"`
	MaxChars       int           `mapstructure:"max_chars"`
	UserAgent      string        `mapstructure:"user_agent"`
	IncludeDomains []string      `mapstructure:"include_domains"`
	ExcludeDomains []string      `mapstructure:"exclude_domains"`
}

func (t ToolsConfig) Validate() error {
	if t.MaxResults < 0 || t.MaxResults > 10 {
		return fmt.Errorf("tools.max_results must be between 0 and 10")
	}
	if t.MaxChars < 0 {
		return fmt.Errorf("tools.max_chars cannot be negative")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"` // host:port of an OTLP gRPC collector; empty disables trace export
}

func (t TelemetryConfig) Validate() error {
	if strings.Contains(t.OTLPEndpoint, "://") {
		return fmt.Errorf("telemetry.otlp_endpoint must be host:port without a scheme")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a Redis host is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

// Addr returns host:port.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether any Postgres connection is configured.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN returns the URL when set, otherwise a key/value connection string.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslmode)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (p PostgresConfig) MigrateURL() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, sslmode)
}

func (p PostgresConfig) Validate() error {
	if !p.Enabled() || strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// ProgressConfig controls the Redis progress stream fan-out
type ProgressConfig struct {
	Stream string `mapstructure:"stream"`
	MaxLen int64  `mapstructure:"max_len"`
}

func (p ProgressConfig) Validate() error {
	if strings.TrimSpace(p.Stream) == "" {
		return fmt.Errorf("progress.stream required")
	}
	if p.MaxLen < 0 {
		return fmt.Errorf("progress.max_len cannot be negative")
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		c.Server, c.LLM, c.Tools, c.Telemetry, c.Storage.Redis, c.Storage.Postgres, c.Progress,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", 30*time.Second)
	v.SetDefault("server.address", ":10001")
	v.SetDefault("server.port", "10001")
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("tools.max_results", 5)
	v.SetDefault("tools.timeout", 20*time.Second)
	v.SetDefault("tools.max_chars", 8000)
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("progress.stream", "research.progress")
	v.SetDefault("progress.max_len", 10000)
}

// LoadConfigE loads config from path (or the default search paths) and validates it.
func LoadConfigE(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("RESEARCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (RESEARCHER_*)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config from file and panics when it is missing or invalid
func LoadConfig(path string) *Config {
	cfg, err := LoadConfigE(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
