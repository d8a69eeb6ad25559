// Package telemetry provides observability for the OpenForma versioning
// engine: structured logging via zerolog, Prometheus metrics for
// lifecycle transitions and gated mutations, OpenTelemetry tracing, and
// a lightweight domain event publisher.
package telemetry
