// Package util holds small helpers shared by attachkit packages: size
// parsing and formatting, file-name sanitization and a few generics.
package util
