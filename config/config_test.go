package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.applyEnv(lookupFrom(nil)); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	cfg.applyDefaults()

	if cfg.DBType != DBTypeSQLite {
		t.Errorf("expected sqlite, got %q", cfg.DBType)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.PerPage != 30 {
		t.Errorf("expected per page 30, got %d", cfg.PerPage)
	}
	if cfg.CredentialSource != CredentialSourceStatic {
		t.Errorf("expected static credentials, got %q", cfg.CredentialSource)
	}
	if !cfg.UsesDefaultSecretKey() {
		t.Error("expected the development secret key")
	}
	if cfg.SessionSecure {
		t.Error("session cookies should not be Secure by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := &Config{}
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"DB_TYPE":       "MySQL",
		"DB_ENDPOINT":   "db.internal",
		"DB_NAME":       "minitwit",
		"DB_SECRET_ARN": "arn:aws:secretsmanager:eu-west-1:123:secret:mtdb",
		"PER_PAGE":      "10",
		"DEBUG":         "true",
	}))
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	cfg.applyDefaults()

	if cfg.DBType != DBTypeMySQL {
		t.Errorf("expected mysql, got %q", cfg.DBType)
	}
	if cfg.DBPort != 3306 {
		t.Errorf("expected mysql default port, got %d", cfg.DBPort)
	}
	if cfg.CredentialSource != CredentialSourceSecretsManager {
		t.Errorf("an ARN should select secretsmanager, got %q", cfg.CredentialSource)
	}
	if cfg.PerPage != 10 || !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("unexpected values: per_page=%d debug=%v level=%q", cfg.PerPage, cfg.Debug, cfg.LogLevel)
	}
	if !cfg.Networked() {
		t.Error("mysql should be networked")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestInvalidEnv(t *testing.T) {
	for _, tc := range []struct {
		key, value string
	}{
		{"PER_PAGE", "many"},
		{"DEBUG", "maybe"},
		{"PORT", "http"},
		{"SESSION_SECURE", "sometimes"},
	} {
		cfg := &Config{}
		if err := cfg.applyEnv(lookupFrom(map[string]string{tc.key: tc.value})); err == nil {
			t.Errorf("%s=%q: expected an error", tc.key, tc.value)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown type", Config{DBType: "oracle", CredentialSource: "static", PerPage: 1, Port: 1}, "unsupported DB_TYPE"},
		{"missing endpoint", Config{DBType: DBTypePostgres, DBName: "x", CredentialSource: "static", PerPage: 1, Port: 1}, "DB_ENDPOINT"},
		{"missing name", Config{DBType: DBTypeMySQL, DBEndpoint: "h", CredentialSource: "static", PerPage: 1, Port: 1}, "DB_NAME"},
		{"bad source", Config{DBType: DBTypeSQLite, CredentialSource: "vault", PerPage: 1, Port: 1}, "DB_CREDENTIAL_SOURCE"},
		{"bad page size", Config{DBType: DBTypeSQLite, CredentialSource: "static", PerPage: -1, Port: 1}, "PER_PAGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := "db_type: postgres\ndb_endpoint: pg.local\ndb_name: twit\nper_page: 5\nsecret_key: s3cr3t\nsession_secure: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PER_PAGE", "7")

	cfg, err := Load(Options{SettingsFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBType != DBTypePostgres || cfg.DBEndpoint != "pg.local" || cfg.DBName != "twit" {
		t.Errorf("settings file not applied: %+v", cfg)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("expected postgres default port, got %d", cfg.DBPort)
	}
	if cfg.PerPage != 7 {
		t.Errorf("environment should override the settings file, got per_page=%d", cfg.PerPage)
	}
	if !cfg.SessionSecure {
		t.Error("expected session_secure from file")
	}
	if cfg.SecretKey != "s3cr3t" {
		t.Errorf("expected secret key from file, got %q", cfg.SecretKey)
	}
}

func TestLoadMissingSettingsFile(t *testing.T) {
	if _, err := Load(Options{SettingsFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("expected an error for a missing settings file")
	}
}
