// Package storage provides storage implementations for job persistence.
//
// This package includes:
//   - GormStorage: a GORM-based implementation for SQLite and PostgreSQL
//   - Open: DSN-based constructor that picks the dialect and pool settings
//   - Connection pool presets per backend
//
// The Storage interface is defined in pkg/core and must be implemented
// by any custom storage backend.
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// which provides OpenStorage() to open and migrate a database in one step.
package storage
