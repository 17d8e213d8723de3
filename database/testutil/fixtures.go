package testutil

import (
	"fmt"
	"testing"

	"gorm.io/gorm"
)

// TruncateTable removes all rows from a table.
func TruncateTable(db *gorm.DB, table string) error {
	if err := db.Exec(fmt.Sprintf("DELETE FROM %q", table)).Error; err != nil {
		return fmt.Errorf("failed to clear table %s: %w", table, err)
	}
	return nil
}

// GetTableNames returns a list of all non-system tables.
func GetTableNames(db *gorm.DB) ([]string, error) {
	var tables []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables).Error
	return tables, err
}

// CountRows returns the number of rows in a table.
func CountRows(db *gorm.DB, table string) (int64, error) {
	var count int64
	err := db.Table(table).Count(&count).Error
	return count, err
}

// AssertRowCount fails the test unless table holds want rows.
func AssertRowCount(t *testing.T, db *gorm.DB, table string, want int64) {
	t.Helper()
	got, err := CountRows(db, table)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	if got != want {
		t.Errorf("table %s has %d rows, want %d", table, got, want)
	}
}
