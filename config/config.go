package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort        string
	AllowedOrigins []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Token signing, loaded once at boot
	JWTSecret             string
	JWTAlgorithm          string
	AccessTokenTTLMinutes int
	PasswordHasher        string
	// Database
	DBDriver       string
	DatabaseURI    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxIdleConns int
	DBMaxOpenConns int
	// Redis read cache; empty host disables caching
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisPassword   string
	CacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// ErrMissingSecret is returned when no signing key is configured.
var ErrMissingSecret = errors.New("JWT_SECRET must be set in environment variables")

// AccessTokenTTL returns the token lifetime.
func (c AppConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// CacheTTL returns how long cached reads live.
func (c AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// Load reads configuration once during boot and caches it.
// Precedence: .env -> config/config.json -> defaults -> environment variable overrides.
func Load() (AppConfig, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg, nil
	}

	// .env only fills variables that are not already set
	_ = godotenv.Load()

	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		return AppConfig{}, err
	}
	cfg, loaded = c, true
	return cfg, nil
}

// LoadFrom builds a configuration from the JSON file at path (optional),
// defaults and the current environment, without caching.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnvOverrides(&c)
	applyDefaults(&c)

	if c.JWTSecret == "" {
		return AppConfig{}, ErrMissingSecret
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return AppConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}

// loadJSONConfig reads grouped sections into out if the file exists. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app := raw["app"]; app != nil {
		out.AppPort = getString(app, "AppPort")
		out.GinMode = getString(app, "GinMode")
		out.GinPath = getString(app, "GinPath")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}
	if a := raw["auth"]; a != nil {
		out.JWTSecret = getString(a, "JWTSecret")
		out.JWTAlgorithm = getString(a, "JWTAlgorithm")
		out.AccessTokenTTLMinutes = getInt(a, "AccessTokenExpireMinutes")
		out.PasswordHasher = getString(a, "PasswordHasher")
	}
	if db := raw["database"]; db != nil {
		out.DBDriver = getString(db, "Driver")
		out.DatabaseURI = getString(db, "URI")
		out.DBHost = getString(db, "Host")
		out.DBPort = getString(db, "Port")
		out.DBUser = getString(db, "User")
		out.DBPassword = getString(db, "Password")
		out.DBName = getString(db, "Name")
		out.DBMaxIdleConns = getInt(db, "MaxIdleConns")
		out.DBMaxOpenConns = getInt(db, "MaxOpenConns")
	}
	if r := raw["redis"]; r != nil {
		out.RedisHost = getString(r, "Host")
		out.RedisPort = getInt(r, "Port")
		out.RedisDB = getInt(r, "DB")
		out.RedisPassword = getString(r, "Password")
		out.CacheTTLSeconds = getInt(r, "CacheTTLSeconds")
	}
	if l := raw["log"]; l != nil {
		out.LogLevel = getString(l, "Level")
		out.LogPath = getString(l, "Path")
		out.LogMaxSizeMB = getInt(l, "MaxSizeMB")
		out.LogMaxBackups = getInt(l, "MaxBackups")
		out.LogMaxAgeDays = getInt(l, "MaxAgeDays")
		out.LogCompress = getBool(l, "Compress")
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.JWTAlgorithm == "" {
		c.JWTAlgorithm = "HS256"
	}
	if c.AccessTokenTTLMinutes <= 0 {
		c.AccessTokenTTLMinutes = 30
	}
	if c.PasswordHasher == "" {
		c.PasswordHasher = "bcrypt"
	}
	c.DBDriver = strings.ToLower(c.DBDriver)
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		if c.DBDriver == "postgres" {
			c.DBPort = "5432"
		} else {
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blog"
	}
	if c.DBMaxIdleConns == 0 {
		c.DBMaxIdleConns = 5
	}
	if c.DBMaxOpenConns == 0 {
		c.DBMaxOpenConns = 20
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

func applyEnvOverrides(c *AppConfig) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = v
		}
	}

	setString(&c.AppPort, "APP_PORT")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.GinPath, "GIN_PATH")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}

	setString(&c.JWTSecret, "JWT_SECRET", "SECRET_KEY")
	setString(&c.JWTAlgorithm, "JWT_ALGORITHM", "ALGORITHM")
	setInt(&c.AccessTokenTTLMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES")
	setString(&c.PasswordHasher, "PASSWORD_HASHER")

	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DatabaseURI, "DATABASE_URI", "DATABASE_URL")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD", "DB_PASS")
	setString(&c.DBName, "DB_NAME")
	setInt(&c.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	setInt(&c.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")

	setString(&c.RedisHost, "REDIS_HOST")
	setInt(&c.RedisPort, "REDIS_PORT")
	setInt(&c.RedisDB, "REDIS_DB")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.CacheTTLSeconds, "CACHE_TTL_SECONDS")

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogPath, "LOG_PATH")
	setInt(&c.LogMaxSizeMB, "LOG_MAX_SIZE_MB")
	setInt(&c.LogMaxBackups, "LOG_MAX_BACKUPS")
	setInt(&c.LogMaxAgeDays, "LOG_MAX_AGE_DAYS")
	if v := os.Getenv("LOG_COMPRESS"); v != "" {
		c.LogCompress, _ = strconv.ParseBool(v)
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
