// Package apperr defines the tagged error taxonomy shared by the loader,
// parsers, chart renderer and dashboard controller.
//
// Every failure that reaches a user is an *Error with a Kind. Boundaries
// translate a Kind into either an error banner, an in-panel warning or an HTTP
// status code; none of them terminate the session.
package apperr
