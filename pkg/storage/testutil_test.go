package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestStorage opens a migrated storage for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh SQLite file in the test's temp dir.
// PostgreSQL connections are pool-limited and closed on test cleanup to
// avoid exceeding max_connections.
func openTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		s, err := Open(dsn, MaxOpenConns(4), MaxIdleConns(2))
		require.NoError(t, err, "open postgres test db")
		require.NoError(t, s.Migrate(context.Background()), "migrate schema")

		// Clean before AND after to ensure test isolation.
		cleanupJobs(t, s)
		t.Cleanup(func() {
			cleanupJobs(t, s)
			_ = s.Close()
		})
		return s
	}

	s, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err, "open sqlite test db")
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// cleanupJobs deletes all rows so tests are isolated without requiring a
// fresh database per test.
func cleanupJobs(t *testing.T, s *GormStorage) {
	t.Helper()
	s.DB().Exec("DELETE FROM squeuelite_jobs")
}
