// Package testutil provides an in-memory SQLite database component and row
// helpers for tests that touch attachment tables.
package testutil
