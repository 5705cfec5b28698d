package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PoolConfig is the database/sql pool shape Open applies. Zero durations
// mean connections are never recycled.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// PostgresPoolConfig is the preset for PostgreSQL URLs. Workers on several
// hosts share the server, so connections are recycled.
func PostgresPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// SQLitePoolConfig is the preset for a SQLite file. The database lock
// serializes writers, so a few connections cover concurrent readers.
func SQLitePoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 4, MaxIdleConns: 4}
}

// InMemoryPoolConfig pins the pool to one connection. Every SQLite
// ":memory:" connection is a separate database.
func InMemoryPoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}
}

// PoolOption overrides one field of the preset Open picks for a DSN.
type PoolOption interface {
	applyPool(*PoolConfig)
}

type poolOptionFunc func(*PoolConfig)

func (f poolOptionFunc) applyPool(c *PoolConfig) { f(c) }

// MaxOpenConns caps open connections. Zero lifts the cap.
func MaxOpenConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxOpenConns = n
	})
}

// MaxIdleConns caps idle connections.
func MaxIdleConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxIdleConns = n
	})
}

// ConnMaxLifetime recycles connections older than d.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxLifetime = d
	})
}

// ConnMaxIdleTime closes connections idle for longer than d.
func ConnMaxIdleTime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxIdleTime = d
	})
}

// configurePool applies opts on top of preset and pushes the result into
// the *sql.DB behind db.
func configurePool(db *gorm.DB, preset PoolConfig, opts ...PoolOption) error {
	for _, opt := range opts {
		opt.applyPool(&preset)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("squeuelite: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(preset.MaxOpenConns)
	sqlDB.SetMaxIdleConns(preset.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(preset.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(preset.ConnMaxIdleTime)
	return nil
}
