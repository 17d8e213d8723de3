// Package testutil provides an in-memory observability component that
// captures spans and metrics for assertions.
package testutil
