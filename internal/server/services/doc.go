// Package services contains the server-side business logic: resolving the
// caller from a bearer token, the owner-scoped task operations and the
// account lifecycle. Services translate repository failures into the
// sentinel errors of internal/common.
package services
