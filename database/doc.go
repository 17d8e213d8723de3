// Package database opens and manages the GORM connection used for
// attachment metadata and database-held file blobs.
//
// The default driver is SQLite (gorm.io/driver/sqlite); Component.WithDriver
// swaps in any other gorm.Dialector. Connections are retried with linear
// backoff and verified with a ping before use.
package database
