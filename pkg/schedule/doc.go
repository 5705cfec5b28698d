// Package schedule provides the schedules that drive periodic maintenance.
//
// This package includes:
//   - Schedule interface
//   - Every() for fixed-interval schedules
//   - Cron() and ParseCron() for cron expression-based schedules
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// which re-exports these functions.
package schedule
