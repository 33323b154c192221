// Package contextkey centralizes the context.Context keys shared across
// packages so they never collide and are never stringly typed.
package contextkey

type key int

const (
	ContextKeyRequestID key = iota
	ContextKeyPrincipal
)
