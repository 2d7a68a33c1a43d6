package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database engine types.
const (
	DBTypeSQLite   = "sqlite"
	DBTypeMySQL    = "mysql"
	DBTypePostgres = "postgres"
)

// Credential sources for networked databases.
const (
	CredentialSourceStatic         = "static"
	CredentialSourceSecretsManager = "secretsmanager"
)

// SettingsEnvVar names the environment variable pointing at a YAML settings file.
const SettingsEnvVar = "MINITWIT_SETTINGS"

const (
	DefaultDBPath            = "/var/minitwit/minitwit.db"
	DefaultSecretKey         = "development key"
	DefaultPerPage           = 30
	DefaultPort              = 5000
	DefaultSecretKeyUsername = "username"
	DefaultSecretKeyPassword = "password"
)

// Config holds every setting the application reads at startup.
type Config struct {
	DBType     string `yaml:"db_type"`
	DBPath     string `yaml:"db_path"`
	DBEndpoint string `yaml:"db_endpoint"`
	DBPort     int    `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	CredentialSource  string `yaml:"db_credential_source"`
	SecretARN         string `yaml:"db_secret_arn"`
	SecretKeyUsername string `yaml:"db_secret_key_username"`
	SecretKeyPassword string `yaml:"db_secret_key_password"`
	DBUser            string `yaml:"db_user"`
	DBPassword        string `yaml:"db_password"`

	SecretKey     string `yaml:"secret_key"`
	SessionSecure bool   `yaml:"session_secure"`
	PerPage     int    `yaml:"per_page"`
	Debug       bool   `yaml:"debug"`
	Port        int    `yaml:"port"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// EnvFile is loaded with godotenv before anything else. Empty means ".env".
	EnvFile string
	// SettingsFile overrides the MINITWIT_SETTINGS environment variable.
	SettingsFile string
}

// Load reads the .env file, the optional YAML settings file and the process
// environment, in that order of increasing precedence.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && opts.EnvFile != "" {
		return nil, fmt.Errorf("loading env file %q: %w", envFile, err)
	}

	cfg := &Config{}

	settings := opts.SettingsFile
	if settings == "" {
		settings = os.Getenv(SettingsEnvVar)
	}
	if settings != "" {
		if err := cfg.loadFile(settings); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing settings file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_TYPE":                &c.DBType,
		"DB_PATH":                &c.DBPath,
		"DB_ENDPOINT":            &c.DBEndpoint,
		"DB_NAME":                &c.DBName,
		"DB_SSLMODE":             &c.DBSSLMode,
		"DB_CREDENTIAL_SOURCE":   &c.CredentialSource,
		"DB_SECRET_ARN":          &c.SecretARN,
		"DB_SECRET_KEY_USERNAME": &c.SecretKeyUsername,
		"DB_SECRET_KEY_PASSWORD": &c.SecretKeyPassword,
		"DB_USER":                &c.DBUser,
		"DB_PASSWORD":            &c.DBPassword,
		"SECRET_KEY":             &c.SecretKey,
		"METRICS_ADDR":           &c.MetricsAddr,
		"LOG_LEVEL":              &c.LogLevel,
		"LOG_FILE":               &c.LogFile,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":  &c.DBPort,
		"PER_PAGE": &c.PerPage,
		"PORT":     &c.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup("SESSION_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_SECURE %q: %w", v, err)
		}
		c.SessionSecure = b
	}

	if v, ok := lookup("DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		c.Debug = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.DBType = strings.ToLower(strings.TrimSpace(c.DBType))
	if c.DBType == "" {
		c.DBType = DBTypeSQLite
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.DBPort == 0 {
		switch c.DBType {
		case DBTypeMySQL:
			c.DBPort = 3306
		case DBTypePostgres:
			c.DBPort = 5432
		}
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.CredentialSource == "" {
		if c.SecretARN != "" {
			c.CredentialSource = CredentialSourceSecretsManager
		} else {
			c.CredentialSource = CredentialSourceStatic
		}
	}
	if c.SecretKeyUsername == "" {
		c.SecretKeyUsername = DefaultSecretKeyUsername
	}
	if c.SecretKeyPassword == "" {
		c.SecretKeyPassword = DefaultSecretKeyPassword
	}
	if c.SecretKey == "" {
		c.SecretKey = DefaultSecretKey
	}
	if c.PerPage == 0 {
		c.PerPage = DefaultPerPage
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
		if c.Debug {
			c.LogLevel = "debug"
		}
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBTypeSQLite:
	case DBTypeMySQL, DBTypePostgres:
		if c.DBEndpoint == "" {
			return errors.New("DB_ENDPOINT is required for networked databases")
		}
		if c.DBName == "" {
			return errors.New("DB_NAME is required for networked databases")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q (expected sqlite, mysql or postgres)", c.DBType)
	}

	switch c.CredentialSource {
	case CredentialSourceStatic, CredentialSourceSecretsManager:
	default:
		return fmt.Errorf("unsupported DB_CREDENTIAL_SOURCE %q", c.CredentialSource)
	}

	if c.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be positive, got %d", c.PerPage)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

// Networked reports whether the configured store is a database server.
func (c *Config) Networked() bool {
	return c.DBType == DBTypeMySQL || c.DBType == DBTypePostgres
}

// UsesDefaultSecretKey reports whether sessions are signed with the built-in development key.
func (c *Config) UsesDefaultSecretKey() bool {
	return c.SecretKey == DefaultSecretKey
}
