package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Auth     AuthConfig
	KYC      KYCConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	LogLevel       slog.Level
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration. An empty DSN is resolved from
// the PG* variables by the db package.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the OCR cache configuration. Caching is off when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// OCRConfig selects and configures the OCR engine
type OCRConfig struct {
	Engine          string // "vision" or "tesseract"
	CredentialsFile string
	TesseractBin    string
	TesseractLang   string
	TessdataDir     string
	Timeout         time.Duration
}

// LLMConfig configures the optional Gemini assist
type LLMConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AuthConfig holds token secrets and the public base URL for share links
type AuthConfig struct {
	JWTSecret       string
	ShareSecret     string
	FrontendBaseURL string
}

// KYCConfig tunes extraction and reconciliation
type KYCConfig struct {
	NameThreshold    int
	AddressThreshold int
	ProfilesFile     string
}

// Load reads a .env file if present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() *Config {
	jwtSecret := getEnv("JWT_SECRET", "")
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			LogLevel:       getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", getEnv("DATABASE_URL", "")),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("OCR_CACHE_TTL", 24*time.Hour),
		},
		OCR: OCRConfig{
			Engine:          strings.ToLower(getEnv("OCR_ENGINE", "vision")),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			TesseractBin:    getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang:   getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:     getEnv("TESSDATA_PREFIX", ""),
			Timeout:         getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Enabled: getEnvAsBool("LLM_ASSIST", false),
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:       jwtSecret,
			ShareSecret:     getEnv("SHARE_TOKEN_SECRET", jwtSecret),
			FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		KYC: KYCConfig{
			NameThreshold:    getEnvAsInt("NAME_MATCH_THRESHOLD", 70),
			AddressThreshold: getEnvAsInt("ADDRESS_MATCH_THRESHOLD", 60),
			ProfilesFile:     getEnv("KYC_PROFILES_FILE", ""),
		},
	}
}

// Validate checks the values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error
	switch c.OCR.Engine {
	case "vision", "tesseract":
	default:
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be vision or tesseract, got %q", c.OCR.Engine))
	}
	if c.KYC.NameThreshold < 1 || c.KYC.NameThreshold > 100 {
		errs = append(errs, fmt.Errorf("NAME_MATCH_THRESHOLD must be within 1..100, got %d", c.KYC.NameThreshold))
	}
	if c.KYC.AddressThreshold < 1 || c.KYC.AddressThreshold > 100 {
		errs = append(errs, fmt.Errorf("ADDRESS_MATCH_THRESHOLD must be within 1..100, got %d", c.KYC.AddressThreshold))
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_ASSIST requires GEMINI_API_KEY"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
