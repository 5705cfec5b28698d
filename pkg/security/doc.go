// Package security provides validation and limits for the squeuelite packages.
//
// This package includes:
//   - Input validation for queue names and payload sizes
//   - Clamping functions to enforce safe limits on worker concurrency
//   - Security-related constants defining maximum sizes and counts
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// which re-exports these functions.
package security
