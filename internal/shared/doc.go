// Package shared provides common utilities and test helpers used across
// the codebase. The testutil subpackage holds slog capture helpers for
// asserting on structured log output in tests.
//
// This package should only contain generic helpers with no
// domain-specific logic and no dependencies on other internal packages.
package shared
