// Package errors provides the structured application error used across
// attachkit: a machine-readable code, an HTTP status, retryability and
// optional details, rendered to clients as an RFC 7807 style body.
package errors
