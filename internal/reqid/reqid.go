// Package reqid carries a per-request identifier through contexts so that
// start and finish events of one HTTP request can be correlated.
package reqid

import (
	"context"
	"math/rand/v2"
	"strconv"
)

// Header is the HTTP header used to accept and echo request IDs.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int64()
	return WithID(parent, id), id
}

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id int64) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}

// FromHeader returns a context carrying the ID given in an incoming header
// value, or a fresh one when the value is empty or not a positive integer.
func FromHeader(parent context.Context, value string) (context.Context, int64) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
		return WithID(parent, id), id
	}
	return NewContext(parent)
}

// String formats id for headers and logs.
func String(id int64) string { return strconv.FormatInt(id, 10) }
