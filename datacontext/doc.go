// Package datacontext provides a unit of work over GORM.
//
// A DataContext queues inserts, updates and deletes and writes them in a
// single transaction on SaveChanges. Reads go straight to the database
// through Session. A DataContext belongs to one request or one operation
// and is closed by whoever created it.
package datacontext
