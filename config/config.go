package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	lserrors "langsite/internal/errors"
	"langsite/internal/logger"
	"langsite/internal/validation"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

const (
	defaultPort     = "8080"
	defaultLanguage = "en"
)

// Config holds application configuration.
type Config struct {
	Env             Environment
	Port            string
	LogLevel        string
	LogFormat       string
	LogOutput       string
	LogFilePath     string
	CORS            CORSConfig
	TrustProxy      bool
	DefaultLanguage string
	Auth            AuthConfig
	Storage         StorageConfig
}

// CORSConfig holds CORS-specific configuration.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// AuthConfig locates the remote authentication service.
type AuthConfig struct {
	URL     string        `env:"AUTH_API_URL" envDefault:"http://localhost:4000/api/auth"`
	Timeout time.Duration `env:"AUTH_API_TIMEOUT" envDefault:"10s"`
}

// StorageConfig selects and configures the per-browser storage backend.
type StorageConfig struct {
	Backend       string        `env:"STORAGE_BACKEND" envDefault:"cookie"`
	RedisAddr     string        `env:"STORAGE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"STORAGE_REDIS_PASSWORD"`
	RedisDB       int           `env:"STORAGE_REDIS_DB" envDefault:"0"`
	SQLitePath    string        `env:"STORAGE_SQLITE_PATH" envDefault:"langsite.db"`
	CookieSecure  bool          `env:"STORAGE_COOKIE_SECURE"`
	TTL           time.Duration `env:"STORAGE_TTL" envDefault:"720h"`
}

type SettingsFile struct {
	App     AppSettings     `json:"app"`
	CORS    CORSSettings    `json:"cors"`
	Auth    AuthSettings    `json:"auth"`
	Storage StorageSettings `json:"storage"`
}

type AppSettings struct {
	Env             string          `json:"env"`
	Logging         LoggingSettings `json:"logging"`
	Port            int             `json:"port"`
	TrustProxy      bool            `json:"trust_proxy"`
	DefaultLanguage string          `json:"default_language"`
}

type LoggingSettings struct {
	Level    string `json:"level"`
	Format   string `json:"format"`
	Output   string `json:"output"`
	FilePath string `json:"file_path"`
}

type CORSSettings struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowCredentials bool     `json:"allow_credentials"`
}

type AuthSettings struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

type StorageSettings struct {
	Backend      string        `json:"backend"`
	Redis        RedisSettings `json:"redis"`
	SQLitePath   string        `json:"sqlite_path"`
	CookieSecure bool          `json:"cookie_secure"`
	TTL          string        `json:"ttl"`
}

type RedisSettings struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from a settings file when one is found, otherwise from
// environment variables. The result is validated before it is returned.
func Load() (Config, error) {
	_ = godotenv.Load()

	auth, storage, err := loadSections()
	if err != nil {
		return Config{}, err
	}

	settings, settingsPath, settingsErr := loadSettingsFile()
	var cfg Config
	switch {
	case settingsErr == nil && settings != nil:
		cfg, err = buildConfigFromSettings(*settings, auth, storage)
		if err != nil {
			return Config{}, fmt.Errorf("%w %s: %v", lserrors.ErrInvalidSettings, settingsPath, err)
		}
	case settingsErr != nil && settingsPath != "":
		return Config{}, fmt.Errorf("%w %s: %v", lserrors.ErrInvalidSettings, settingsPath, settingsErr)
	default:
		env := parseEnv(getEnv("APP_ENV", "dev"))
		cfg = Config{
			Env:             env,
			Port:            getEnv("PORT", defaultPort),
			LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel(env)),
			LogFormat:       getEnv("LOG_FORMAT", defaultLogFormat(env)),
			LogOutput:       getEnv("LOG_OUTPUT", "stdout"),
			LogFilePath:     getEnv("LOG_FILE_PATH", ""),
			CORS:            loadCORSConfig(env),
			TrustProxy:      getEnvBool("TRUST_PROXY", false),
			DefaultLanguage: strings.TrimSpace(getEnv("DEFAULT_LANGUAGE", defaultLanguage)),
			Auth:            auth,
			Storage:         storage,
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadSections parses the struct-tagged sections; they also provide the defaults
// a settings file may leave empty.
func loadSections() (AuthConfig, StorageConfig, error) {
	var auth AuthConfig
	if err := env.Parse(&auth); err != nil {
		return AuthConfig{}, StorageConfig{}, fmt.Errorf("parse auth env: %w", err)
	}
	var storage StorageConfig
	if err := env.Parse(&storage); err != nil {
		return AuthConfig{}, StorageConfig{}, fmt.Errorf("parse storage env: %w", err)
	}
	return auth, storage, nil
}

// Validate checks the settings the server cannot start without and normalizes
// the storage backend name.
func (c *Config) Validate() error {
	if err := validation.ValidateAuthURL(c.Auth.URL); err != nil {
		return fmt.Errorf("%w: %q", err, c.Auth.URL)
	}
	backend, err := validation.ValidateStorageBackend(c.Storage.Backend)
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.Storage.Backend)
	}
	c.Storage.Backend = backend
	if backend == validation.BackendSQLite && strings.TrimSpace(c.Storage.SQLitePath) == "" {
		return fmt.Errorf("%w: sqlite backend needs STORAGE_SQLITE_PATH", lserrors.ErrInvalidStorageBackend)
	}
	if c.Auth.Timeout <= 0 {
		c.Auth.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		c.DefaultLanguage = defaultLanguage
	}
	return nil
}

func loadSettingsFile() (*SettingsFile, string, error) {
	settingsPath := strings.TrimSpace(getEnv("SETTINGS_PATH", ""))
	if settingsPath != "" {
		settings, err := readSettings(settingsPath)
		return settings, settingsPath, err
	}

	envName := strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev")))
	candidates := []string{fmt.Sprintf("settings.%s.json", envName), "settings.json", "/etc/langsite/settings.json"}
	for _, candidate := range candidates {
		absPath, absErr := filepath.Abs(candidate)
		if absErr != nil {
			continue
		}
		if _, statErr := os.Stat(absPath); statErr != nil {
			continue
		}
		settings, err := readSettings(absPath)
		return settings, absPath, err
	}
	return nil, "", lserrors.ErrSettingsNotFound
}

func readSettings(path string) (*SettingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var settings SettingsFile
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func buildConfigFromSettings(settings SettingsFile, auth AuthConfig, storage StorageConfig) (Config, error) {
	envValue := strings.TrimSpace(settings.App.Env)
	if envValue == "" {
		envValue = "dev"
	}
	env := parseEnv(envValue)
	port := defaultPort
	if settings.App.Port > 0 {
		port = strconv.Itoa(settings.App.Port)
	}
	logLevel := firstNonEmpty(settings.App.Logging.Level, defaultLogLevel(env))
	logFormat := firstNonEmpty(settings.App.Logging.Format, defaultLogFormat(env))
	logOutput := firstNonEmpty(settings.App.Logging.Output, "stdout")
	cors := loadCORSConfig(env)
	if len(settings.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = settings.CORS.AllowedOrigins
		cors.AllowCredentials = settings.CORS.AllowCredentials
	}

	auth.URL = firstNonEmpty(settings.Auth.URL, auth.URL)
	if raw := strings.TrimSpace(settings.Auth.Timeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("auth.timeout: %w", err)
		}
		auth.Timeout = timeout
	}

	storage.Backend = firstNonEmpty(settings.Storage.Backend, storage.Backend)
	storage.RedisAddr = firstNonEmpty(settings.Storage.Redis.Addr, storage.RedisAddr)
	storage.RedisPassword = firstNonEmpty(settings.Storage.Redis.Password, storage.RedisPassword)
	if settings.Storage.Redis.DB > 0 {
		storage.RedisDB = settings.Storage.Redis.DB
	}
	storage.SQLitePath = firstNonEmpty(settings.Storage.SQLitePath, storage.SQLitePath)
	storage.CookieSecure = storage.CookieSecure || settings.Storage.CookieSecure
	if raw := strings.TrimSpace(settings.Storage.TTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("storage.ttl: %w", err)
		}
		storage.TTL = ttl
	}

	return Config{
		Env:             env,
		Port:            port,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		LogOutput:       logOutput,
		LogFilePath:     strings.TrimSpace(settings.App.Logging.FilePath),
		CORS:            cors,
		TrustProxy:      settings.App.TrustProxy,
		DefaultLanguage: firstNonEmpty(settings.App.DefaultLanguage, defaultLanguage),
		Auth:            auth,
		Storage:         storage,
	}, nil
}

// LogOptions returns the logger settings of the configuration.
func (c Config) LogOptions() logger.Options {
	return logger.Options{Level: c.LogLevel, Format: c.LogFormat, Output: c.LogOutput, FilePath: c.LogFilePath}
}

// IsDev returns true if the environment is development.
func (c Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsProd returns true if the environment is production.
func (c Config) IsProd() bool {
	return c.Env == EnvProd
}

func parseEnv(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return EnvProd
	default:
		return EnvDev
	}
}

func defaultLogLevel(env Environment) string {
	if env == EnvProd {
		return "info"
	}
	return "debug"
}

func defaultLogFormat(env Environment) string {
	if env == EnvProd {
		return "json"
	}
	return "console"
}

func loadCORSConfig(env Environment) CORSConfig {
	originsEnv := getEnv("CORS_ALLOWED_ORIGINS", "")
	if originsEnv != "" {
		origins := strings.Split(originsEnv, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return CORSConfig{AllowedOrigins: origins, AllowCredentials: true}
	}
	if env == EnvProd {
		return CORSConfig{AllowedOrigins: []string{}, AllowCredentials: true}
	}
	return CORSConfig{AllowedOrigins: []string{"http://localhost:8080", "http://localhost:3000"}, AllowCredentials: true}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
