package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/ai"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	UserID string `mapstructure:"user_id" yaml:"user_id"`

	Provider      string  `mapstructure:"provider" yaml:"provider" validate:"oneof=gemini openrouter ollama"`
	Model         string  `mapstructure:"model" yaml:"model"`
	APIKey        string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	APIKeyBackup  string  `mapstructure:"api_key_backup" yaml:"api_key_backup,omitempty"`
	BaseURL       string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	OllamaHost    string  `mapstructure:"ollama_host" yaml:"ollama_host" validate:"omitempty,url"`
	MaxTokens     int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=1"`
	Temperature   float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	ModelsCatalog string  `mapstructure:"models_catalog" yaml:"models_catalog,omitempty"`

	// Timeouts
	AttemptTimeoutSec int `mapstructure:"attempt_timeout_sec" yaml:"attempt_timeout_sec" validate:"gte=1"`
	HTTPTimeoutSec    int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=1"`

	// Storage
	DBPath     string `mapstructure:"db_path" yaml:"db_path" validate:"required"`
	UploadsDir string `mapstructure:"uploads_dir" yaml:"uploads_dir" validate:"required"`

	GroundingTokenBudget int    `mapstructure:"grounding_token_budget" yaml:"grounding_token_budget" validate:"gte=0"`
	PersistArtifacts     bool   `mapstructure:"persist_artifacts" yaml:"persist_artifacts"`
	LogLevel             string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	ListenAddr           string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"hostname_port"`
}

// Dir returns ~/.growmint.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".growmint"), nil
}

// Path returns cfgFile, or ~/.growmint/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.growmint/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// The file may hold API keys.
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, .env and defaults.
// Precedence: GROWMINT_* env > provider env (GEMINI_API_KEY) > config file > defaults.
// A .env file in the working directory is loaded first and never overrides
// variables already set.
func Load(cfgFile string) (*Global, error) {
	return load(cfgFile, ".env")
}

func load(cfgFile, envFile string) (*Global, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("GROWMINT")
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "GROWMINT_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("api_key_backup", "GROWMINT_API_KEY_BACKUP", "GEMINI_API_KEY_BACKUP")

	// Defaults
	v.SetDefault("user_id", "local")
	v.SetDefault("provider", ai.ProviderGemini)
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("api_key_backup", "")
	v.SetDefault("base_url", "")
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("models_catalog", "")
	v.SetDefault("attempt_timeout_sec", int(generation.DefaultAttemptTimeout/time.Second))
	v.SetDefault("http_timeout_sec", 90)
	v.SetDefault("db_path", filepath.Join(dir, "growmint.db"))
	v.SetDefault("uploads_dir", filepath.Join(dir, "uploads"))
	v.SetDefault("grounding_token_budget", 0)
	v.SetDefault("persist_artifacts", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", "127.0.0.1:8080")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = ai.NormalizeProvider(c.Provider)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// Validate checks field rules.
func (c *Global) Validate() error {
	return domain.Validate(c)
}

// Generation returns the settings used to build the generation client.
func (c *Global) Generation() generation.Settings {
	return generation.Settings{
		Provider:       c.Provider,
		Model:          c.Model,
		APIKey:         c.APIKey,
		BackupAPIKey:   c.APIKeyBackup,
		OllamaHost:     c.OllamaHost,
		BaseURL:        c.BaseURL,
		HTTPTimeout:    time.Duration(c.HTTPTimeoutSec) * time.Second,
		AttemptTimeout: time.Duration(c.AttemptTimeoutSec) * time.Second,
		MaxTokens:      c.MaxTokens,
		Temperature:    c.Temperature,
	}
}

// Redacted returns a copy safe to print.
func (c *Global) Redacted() Global {
	out := *c
	out.APIKey = mask(c.APIKey)
	out.APIKeyBackup = mask(c.APIKeyBackup)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// Keys lists the settable keys in declaration order.
func Keys() []string {
	t := reflect.TypeOf(Global{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, t.Field(i).Tag.Get("mapstructure"))
	}
	return keys
}

// Set assigns value to key, converting it to the field's type, and
// re-validates.
func (c *Global) Set(key, value string) error {
	rv := reflect.ValueOf(c).Elem()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("mapstructure") != key {
			continue
		}
		f := rv.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(value)
		case reflect.Int:
			n, err := strconv.Atoi(value)
			if err != nil {
				return domain.Invalid(key, "must be an integer")
			}
			f.SetInt(int64(n))
		case reflect.Float64:
			x, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return domain.Invalid(key, "must be a number")
			}
			f.SetFloat(x)
		case reflect.Bool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return domain.Invalid(key, "must be true or false")
			}
			f.SetBool(b)
		}
		if key == "provider" {
			c.Provider = ai.NormalizeProvider(c.Provider)
		}
		return c.Validate()
	}
	return domain.Invalid(key, "unknown config key (known: %s)", strings.Join(Keys(), ", "))
}
