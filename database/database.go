package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"minitwit/config"
	"minitwit/credentials"
)

// Pool limits for networked databases.
const (
	maxOpenConns    = 16
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute

	sqliteMaxOpenConns = 4
	pingTimeout        = 5 * time.Second
)

// Open builds the process-wide database handle described by cfg. Credentials
// for networked stores come from provider. The connection is verified with a
// ping so that configuration problems surface at startup.
func Open(ctx context.Context, cfg *config.Config, provider credentials.Provider, log logrus.FieldLogger) (*sqlx.DB, error) {
	driver, dsn, err := dataSource(ctx, cfg, provider, log)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.DBType, err)
	}

	if cfg.DBType == config.DBTypeSQLite {
		db.SetMaxOpenConns(sqliteMaxOpenConns)
		db.SetMaxIdleConns(sqliteMaxOpenConns)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxIdleTime(connMaxIdleTime)
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", cfg.DBType, err)
	}
	return db, nil
}

func dataSource(ctx context.Context, cfg *config.Config, provider credentials.Provider, log logrus.FieldLogger) (driver, dsn string, err error) {
	if !cfg.Networked() {
		if cfg.DBType != config.DBTypeSQLite {
			return "", "", fmt.Errorf("unsupported database type %q", cfg.DBType)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return "", "", fmt.Errorf("creating database directory: %w", err)
		}
		log.WithField("path", cfg.DBPath).Info("Using local db")
		return "sqlite3", SQLiteDSN(cfg.DBPath), nil
	}

	creds, err := provider.Credentials(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolving database credentials: %w", err)
	}

	log.WithFields(logrus.Fields{
		"db_type":  cfg.DBType,
		"endpoint": cfg.DBEndpoint,
		"db":       cfg.DBName,
		"username": creds.Username,
	}).Info("Using networked db")

	switch cfg.DBType {
	case config.DBTypeMySQL:
		return "mysql", MySQLDSN(cfg, creds), nil
	case config.DBTypePostgres:
		return "postgres", PostgresDSN(cfg, creds), nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

// SQLiteDSN enables foreign keys, WAL and a busy timeout for path.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// MySQLDSN runs the session with ANSI_QUOTES so the quoted "user" table name
// works the same way it does on the other engines.
func MySQLDSN(cfg *config.Config, creds credentials.Credentials) string {
	mc := mysql.NewConfig()
	mc.User = creds.Username
	mc.Passwd = creds.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBEndpoint, strconv.Itoa(cfg.DBPort))
	mc.DBName = cfg.DBName
	mc.Params = map[string]string{
		"sql_mode": "'TRADITIONAL,ANSI_QUOTES'",
	}
	return mc.FormatDSN()
}

func PostgresDSN(cfg *config.Config, creds credentials.Credentials) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(creds.Username, creds.Password),
		Host:     net.JoinHostPort(cfg.DBEndpoint, strconv.Itoa(cfg.DBPort)),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {cfg.DBSSLMode}}.Encode(),
	}
	return u.String()
}
