package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the news assistant
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Session SessionConfig `mapstructure:"session"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// DefaultTimeout bounds one whole query request, including every model
	// turn and news fetch it triggers.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Endpoint   string        `mapstructure:"endpoint"`
	PageSize   int           `mapstructure:"page_size"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (n NewsAPIConfig) Validate() error {
	if strings.TrimSpace(n.APIKey) == "" {
		return fmt.Errorf("newsapi.api_key is required")
	}
	if n.PageSize <= 0 || n.PageSize > 100 {
		return fmt.Errorf("newsapi.page_size must be between 1 and 100")
	}
	return nil
}

// LLMConfig contains LLM provider settings
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"` // anthropic, openai, gemini
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	return nil
}

// SessionConfig controls conversation persistence
type SessionConfig struct {
	StoreType string        `mapstructure:"store_type"` // inmemory, redis
	TTL       time.Duration `mapstructure:"ttl"`
	Redis     RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (s SessionConfig) Validate() error {
	switch s.StoreType {
	case "inmemory":
	case "redis":
		if strings.TrimSpace(s.Redis.Host) == "" || strings.TrimSpace(s.Redis.Port) == "" {
			return fmt.Errorf("session.redis.host and session.redis.port required for redis store")
		}
	default:
		return fmt.Errorf("unsupported session.store_type: %s", s.StoreType)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.default_timeout", 5*time.Minute)
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("newsapi.endpoint", "https://newsapi.org/v2")
	viper.SetDefault("newsapi.page_size", 100)
	viper.SetDefault("newsapi.max_results", 100)
	viper.SetDefault("newsapi.timeout", 30*time.Second)
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("session.store_type", "inmemory")
	viper.SetDefault("session.ttl", time.Hour)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("NEWSAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match (NEWSAGENT_*)

	if err := viper.ReadInConfig(); err != nil {
		// Env-only configuration is allowed when no config file is present.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.NewsAPI.Validate(); err != nil {
		panic(err)
	}
	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Session.Validate(); err != nil {
		panic(err)
	}
	return &config
}
