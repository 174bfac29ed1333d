// Package monitor serves the read-only trading data the dashboard charts:
// price history, trade signals and per-symbol trading state.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"configdesk/internal/tree"
)

// ErrNotConfigured is returned while the document has no database section.
var ErrNotConfigured = errors.New("database not configured")

// DatabaseSection is the document field holding the connection settings.
const DatabaseSection = "database"

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN renders cfg as a keyword/value connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(c.Host), c.Port, quote(c.User), quote(c.Password), quote(c.Database), quote(c.SSLMode),
	)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// ConfigFromTree reads the database section of a configuration document.
// ok is false when the document has none.
func ConfigFromTree(t *tree.Tree) (cfg Config, ok bool, err error) {
	n, err := t.Get(tree.Path{DatabaseSection})
	if err != nil {
		return Config{}, false, nil
	}
	m, isMap := n.(*tree.Mapping)
	if !isMap {
		return Config{}, false, fmt.Errorf("%s: not a mapping", DatabaseSection)
	}
	text := func(name string) string {
		v, found := m.Lookup(name)
		s, isScalar := v.(tree.Scalar)
		if !found || !isScalar {
			return ""
		}
		return s.Text()
	}

	cfg = Config{
		Host:     text("host"),
		User:     text("user"),
		Password: text("password"),
		Database: text("name"),
		SSLMode:  text("sslmode"),
		Port:     5432,
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	if p := text("port"); p != "" {
		port, perr := strconv.Atoi(p)
		if perr != nil || port <= 0 || port > 65535 {
			return Config{}, false, fmt.Errorf("%s.port: invalid port %q", DatabaseSection, p)
		}
		cfg.Port = port
	}
	if cfg.Database == "" {
		return Config{}, false, fmt.Errorf("%s.name is required", DatabaseSection)
	}
	return cfg, true, nil
}

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
	cfg  Config
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &DB{Pool: pool, cfg: cfg}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
