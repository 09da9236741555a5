// Package version provides version information and build metadata for
// mockzfs.
//
// Compile-time variables (Version, Commit, Date) can be injected via
// -ldflags; otherwise the package falls back to Go build info and
// development defaults, so version reporting works in development,
// CI, and release builds alike.
package version
