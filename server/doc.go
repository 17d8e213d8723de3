// Package server provides the HTTP server of the attachment service: a Gin
// engine mounted on a ServeMux and served with h2c (HTTP/2 cleartext).
//
// Middleware in server/middleware uses the plain net/http signature and is
// applied around the whole mux by ApplyMiddleware:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the logger context
//   - BodySizeLimit: request body limit parsed from a size string ("10MB")
//   - RequestLogger: one log line per request, level by status code
//
// The /health endpoint (server/endpoint) aggregates component health.
package server
