// Package client contains client-side building blocks for taskkeeper.
//
// # Overview
//
// The package provides:
//  1. The Client interface, the REST API as the CLI uses it.
//  2. HTTPClient, a net/http implementation that attaches the bearer token
//     and decodes the API's JSON error body into *APIError.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     CLI's SQLite session database.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. *APIError unwraps to
// ErrUnauthorized, ErrForbidden, ErrNotFound or ErrUnavailable according to
// the response status, so callers can use errors.Is.
package client
