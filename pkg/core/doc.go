// Package core provides the fundamental types and interfaces for the squeuelite packages.
//
// This package contains:
//   - The Job data model with GORM annotations
//   - The Storage interface defining the persistence contract
//   - Event types for queue monitoring
//   - Sentinel errors for validation and configuration
//
// Most users should import the root package github.com/schorsch3000/squeuelite
// instead of this package directly.
package core
