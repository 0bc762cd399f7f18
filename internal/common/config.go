package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Extract  ExtractConfig  `yaml:"extract"`
	Limits   LimitsConfig   `yaml:"limits"`
	Queue    QueueConfig    `yaml:"queue"`
	Calendar CalendarConfig `yaml:"calendar"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCHealthAddr  string        `yaml:"grpc_health_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	TextModel   string        `yaml:"text_model"`
	VisionModel string        `yaml:"vision_model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ExtractConfig holds document extraction configuration
type ExtractConfig struct {
	Pdftotext     string `yaml:"pdftotext"`
	HeicConverter string `yaml:"heic_converter"`
}

// LimitsConfig holds the admission gate configuration
type LimitsConfig struct {
	RateWindow      time.Duration `yaml:"rate_window"`
	RateMax         int           `yaml:"rate_max"`
	CompactEvery    int           `yaml:"compact_every"`
	CompactSchedule string        `yaml:"compact_schedule"`
	MaxDocBytes     int64         `yaml:"max_doc_bytes"`
	MaxImageBytes   int64         `yaml:"max_image_bytes"`
}

// QueueConfig holds upload queue configuration
type QueueConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxItems      int           `yaml:"max_items"`
	ItemTimeout   time.Duration `yaml:"item_timeout"`
}

// CalendarConfig holds calendar encoding configuration
type CalendarConfig struct {
	TimeZone string `yaml:"time_zone"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCHealthAddr:  getEnv("GRPC_HEALTH_ADDR", ""),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			TextModel:   getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Extract: ExtractConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			HeicConverter: getEnv("HEIC_CONVERTER", ""),
		},
		Limits: LimitsConfig{
			RateWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			RateMax:         getEnvAsInt("RATE_LIMIT_MAX", 15),
			CompactEvery:    getEnvAsInt("RATE_LIMIT_COMPACT_EVERY", 100),
			CompactSchedule: getEnv("RATE_LIMIT_COMPACT_SCHEDULE", "@every 1m"),
			MaxDocBytes:     getEnvAsInt64("MAX_DOC_BYTES", constants.MaxDocBytes),
			MaxImageBytes:   getEnvAsInt64("MAX_IMAGE_BYTES", constants.MaxImageBytes),
		},
		Queue: QueueConfig{
			MaxConcurrent: getEnvAsInt("QUEUE_MAX_CONCURRENT", 3),
			MaxItems:      getEnvAsInt("QUEUE_MAX_ITEMS", 10),
			ItemTimeout:   getEnvAsDuration("QUEUE_ITEM_TIMEOUT", 2*time.Minute),
		},
		Calendar: CalendarConfig{
			TimeZone: getEnv("CALENDAR_TZ", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values. An empty path is a no-op.
func LoadConfigFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Load reads the environment and then the optional SYLLABUS_CONFIG file.
func Load() (*Config, error) {
	cfg := LoadConfig()
	if err := LoadConfigFile(cfg, getEnv("SYLLABUS_CONFIG", "")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves the calendar time zone; nil means floating local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.TimeZone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Calendar.TimeZone)
}

// SlogLevel maps Log.Level onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. requireLLM is false for commands
// that never call the model (calendar encoding, summaries).
func (c *Config) Validate(requireLLM bool) error {
	if requireLLM && c.LLM.APIKey == "" {
		return NewAppError(KindConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Limits.RateMax <= 0 || c.Limits.RateWindow <= 0 {
		return NewAppError(KindConfig, "rate limit window and max must be positive", ErrInvalidInput)
	}
	if c.Limits.MaxDocBytes <= 0 || c.Limits.MaxImageBytes <= 0 {
		return NewAppError(KindConfig, "size caps must be positive", ErrInvalidInput)
	}
	if c.Queue.MaxConcurrent <= 0 || c.Queue.MaxItems <= 0 {
		return NewAppError(KindConfig, "queue limits must be positive", ErrInvalidInput)
	}
	if _, err := c.Location(); err != nil {
		return NewAppError(KindConfig, "CALENDAR_TZ is not a known time zone", err)
	}
	return nil
}
