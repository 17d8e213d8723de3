// Package component manages the lifecycle of long-lived infrastructure
// pieces (database connection, HTTP server). Components start in
// registration order, stop in reverse order and report their health.
package component
