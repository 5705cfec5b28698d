package storage

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteParams are appended to every SQLite DSN opened through Open.
// _txlock=immediate makes every transaction take the write lock at BEGIN,
// which is what serializes concurrent claims.
var sqliteParams = []string{
	"_txlock=immediate",
	"_busy_timeout=5000",
	"_journal_mode=WAL",
}

// SQLiteDSN builds a go-sqlite3 DSN for the database file at path.
// Parameters already present in path are kept.
func SQLiteDSN(path string) string {
	base, query, _ := strings.Cut(path, "?")
	params := make([]string, 0, len(sqliteParams)+1)
	if query != "" {
		params = append(params, query)
	}
	for _, p := range sqliteParams {
		key, _, _ := strings.Cut(p, "=")
		if !strings.Contains(query, key+"=") {
			params = append(params, p)
		}
	}
	return base + "?" + strings.Join(params, "&")
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func isInMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Open connects to dsn, configures the connection pool and returns storage
// ready for Migrate. PostgreSQL URLs use the postgres driver; anything else
// is treated as a SQLite file path.
func Open(dsn string, opts ...PoolOption) (*GormStorage, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		dialector gorm.Dialector
		pool      PoolConfig
	)
	switch {
	case IsPostgresDSN(dsn):
		dialector = postgres.Open(dsn)
		pool = PostgresPoolConfig()
	case isInMemory(dsn):
		dialector = sqlite.Open(SQLiteDSN(dsn))
		pool = InMemoryPoolConfig()
	default:
		dialector = sqlite.Open(SQLiteDSN(dsn))
		pool = SQLitePoolConfig()
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("squeuelite: open %s: %w", dialector.Name(), err)
	}
	if err := configurePool(db, pool, opts...); err != nil {
		return nil, err
	}
	return NewGormStorage(db), nil
}
