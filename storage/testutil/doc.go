// Package testutil provides an in-memory storage.Storage with failure
// injection for tests of code that stores attachment bytes.
package testutil
