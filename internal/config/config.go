package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "dialplan.toml"

// Config is the top-level dialplan configuration.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	// DefaultRegion is used for numbers written without a calling code.
	DefaultRegion    string `toml:"default_region" validate:"omitempty,len=2,uppercase"`
	PatternCacheSize int    `toml:"pattern_cache_size" validate:"min=1,max=100000"`
	// MetadataDir replaces the bundled numbering plans. It must hold an
	// index.yaml with regions/ and nongeo/ next to it.
	MetadataDir string `toml:"metadata_dir"`
}

type ServerConfig struct {
	Host               string   `toml:"host" validate:"required"`
	Port               int      `toml:"port" validate:"min=1,max=65535"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ShutdownTimeout    int      `toml:"shutdown_timeout" validate:"min=0"` // seconds
	RateLimit          int      `toml:"rate_limit" validate:"min=0"`       // requests per minute per IP, 0 disables
	SessionTTL         int      `toml:"session_ttl" validate:"min=1"`      // seconds
	MaxSessions        int      `toml:"max_sessions" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=json text"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			PatternCacheSize: 100,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8095,
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    10,
			RateLimit:          120,
			SessionTTL:         900,
			MaxSessions:        10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration with priority:
// defaults → dialplan.toml → .env → environment → CLI flags.
// The .env file is looked up next to the config file. Variables already
// set in the environment win over the .env file.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultFile
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	dotenv, err := readDotenv(filepath.Join(filepath.Dir(configPath), ".env"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, envLookup(dotenv)); err != nil {
		return nil, err
	}

	if err := applyFlags(cfg, flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vals, nil
}

func envLookup(dotenv map[string]string) func(string) string {
	return func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return dotenv[name]
	}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(verrs[0])
		}
		return err
	}
	if dir := c.Engine.MetadataDir; dir != "" {
		fi, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("engine.metadata_dir: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("engine.metadata_dir must be a directory, got %q", dir)
		}
	}
	for _, o := range c.Server.CORSAllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("server.cors_allowed_origins must not contain empty entries")
		}
	}
	return nil
}

// describe renders a validator failure using the dotted config key.
func describe(fe validator.FieldError) error {
	key := strings.ToLower(fe.Namespace())
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "min":
		return fmt.Errorf("%s must be at least %s, got %v", key, fe.Param(), fe.Value())
	case "max":
		return fmt.Errorf("%s must be at most %s, got %v", key, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s; got %q", key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "required":
		return fmt.Errorf("%s is required", key)
	case "len", "uppercase":
		return fmt.Errorf("%s must be a two-letter uppercase region code, got %q", key, fe.Value())
	default:
		return fmt.Errorf("%s is invalid (%s)", key, fe.Tag())
	}
}

// Address returns the host:port string for the server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeoutDuration returns server.shutdown_timeout as a duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// SessionTTLDuration returns server.session_ttl as a duration.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.Server.SessionTTL) * time.Second
}

// GenerateDefault writes a commented default dialplan.toml to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}

// ToTOML returns the config serialized as TOML.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(getenv func(string) string, name string, dest *int) error {
	v := getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("DIALPLAN_DEFAULT_REGION"); v != "" {
		cfg.Engine.DefaultRegion = strings.ToUpper(v)
	}
	if err := envInt(getenv, "DIALPLAN_PATTERN_CACHE_SIZE", &cfg.Engine.PatternCacheSize); err != nil {
		return err
	}
	if v := getenv("DIALPLAN_METADATA_DIR"); v != "" {
		cfg.Engine.MetadataDir = v
	}
	if v := getenv("DIALPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt(getenv, "DIALPLAN_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := getenv("DIALPLAN_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = strings.Split(v, ",")
	}
	if err := envInt(getenv, "DIALPLAN_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	if err := envInt(getenv, "DIALPLAN_RATE_LIMIT", &cfg.Server.RateLimit); err != nil {
		return err
	}
	if err := envInt(getenv, "DIALPLAN_SESSION_TTL", &cfg.Server.SessionTTL); err != nil {
		return err
	}
	if err := envInt(getenv, "DIALPLAN_MAX_SESSIONS", &cfg.Server.MaxSessions); err != nil {
		return err
	}
	if v := getenv("DIALPLAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv("DIALPLAN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func applyFlags(cfg *Config, flags map[string]string) error {
	if flags == nil {
		return nil
	}
	if v, ok := flags["region"]; ok && v != "" {
		cfg.Engine.DefaultRegion = strings.ToUpper(v)
	}
	if v, ok := flags["metadata-dir"]; ok && v != "" {
		cfg.Engine.MetadataDir = v
	}
	if v, ok := flags["port"]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid --port %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := flags["host"]; ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// validKeys is the complete set of dot-separated config keys.
var validKeys = map[string]bool{
	"engine.default_region": true, "engine.pattern_cache_size": true, "engine.metadata_dir": true,
	"server.host": true, "server.port": true, "server.cors_allowed_origins": true,
	"server.shutdown_timeout": true, "server.rate_limit": true, "server.session_ttl": true,
	"server.max_sessions": true,
	"logging.level": true, "logging.format": true,
}

// IsValidKey returns true if the dotted key is a recognized config key.
func IsValidKey(key string) bool {
	return validKeys[key]
}

// GetValue returns the value for a dotted config key (e.g. "server.port").
func GetValue(cfg *Config, key string) (any, error) {
	switch key {
	case "engine.default_region":
		return cfg.Engine.DefaultRegion, nil
	case "engine.pattern_cache_size":
		return cfg.Engine.PatternCacheSize, nil
	case "engine.metadata_dir":
		return cfg.Engine.MetadataDir, nil
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return cfg.Server.Port, nil
	case "server.cors_allowed_origins":
		return strings.Join(cfg.Server.CORSAllowedOrigins, ","), nil
	case "server.shutdown_timeout":
		return cfg.Server.ShutdownTimeout, nil
	case "server.rate_limit":
		return cfg.Server.RateLimit, nil
	case "server.session_ttl":
		return cfg.Server.SessionTTL, nil
	case "server.max_sessions":
		return cfg.Server.MaxSessions, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}

// SetValue reads the existing TOML file, updates a single key, and writes it back.
// Creates the file with just the key if it doesn't exist.
func SetValue(configPath, key, value string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	var data map[string]any
	if raw, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	if data == nil {
		data = make(map[string]any)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := data[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		data[section] = sectionMap
	}
	sectionMap[field] = coerceValue(key, value)

	out, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(configPath, out, 0o644)
}

// coerceValue converts a string value to the appropriate Go type for TOML serialization.
func coerceValue(key, value string) any {
	switch key {
	case "engine.pattern_cache_size", "server.port", "server.shutdown_timeout",
		"server.rate_limit", "server.session_ttl", "server.max_sessions":
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "server.cors_allowed_origins":
		return strings.Split(value, ",")
	case "engine.default_region":
		return strings.ToUpper(value)
	}
	return value
}

const defaultTOML = `# dialplan configuration

[engine]
# Region assumed for numbers written without a calling code, e.g. "US".
# default_region = ""

# Number of compiled numbering-plan patterns kept in memory.
pattern_cache_size = 100

# Directory with numbering plans to use instead of the bundled ones.
# It must contain index.yaml plus regions/ and nongeo/.
# metadata_dir = ""

[server]
# Address to listen on.
host = "0.0.0.0"
port = 8095

# CORS allowed origins. Use ["*"] to allow all.
cors_allowed_origins = ["*"]

# Seconds to wait for in-flight requests during shutdown.
shutdown_timeout = 10

# Requests per minute per client IP. 0 disables rate limiting.
rate_limit = 120

# Seconds an idle as-you-type session is kept.
session_ttl = 900

# Upper bound on concurrently open as-you-type sessions.
max_sessions = 10000

[logging]
# Log level: debug, info, warn, error.
level = "info"

# Log format: json or text.
format = "text"
`
