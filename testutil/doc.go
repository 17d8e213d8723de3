// Package testutil defines the contract shared by in-memory test doubles
// of attachkit components (database, object storage) and helpers that
// start them for the duration of a test.
package testutil
