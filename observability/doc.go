// Package observability wires OpenTelemetry tracing and metrics for
// attachkit. InitTracer and InitMeter install OTLP/HTTP exporters as the
// global providers; StartOperation and Metrics are what the attachment
// code records against. Without Init the global no-op providers are used.
package observability
