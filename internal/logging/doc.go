// Package logging configures the process-wide slog logger.
//
// Records carry the service name and, when a request set one, the request's
// correlation id.
package logging
