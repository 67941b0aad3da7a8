// Package graphdb is the seam between query resolution and the graph
// database. The interfaces cover what a resolver needs from a driver: a
// session per resolution running one statement in a write transaction.
package graphdb

import "context"

// Record is one result row.
type Record interface {
	// Get returns the value of column key and whether the column exists.
	Get(key string) (any, bool)
}

// Tx runs statements inside a managed transaction.
type Tx interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// Session is a unit of work. Close must be called on every path.
type Session interface {
	// ExecuteWrite runs work in a write transaction, committing when work
	// returns a nil error. Drivers may retry work on transient failures.
	ExecuteWrite(ctx context.Context, work func(tx Tx) (any, error)) (any, error)
	Close(ctx context.Context) error
}

// Driver hands out sessions. Implementations are safe for concurrent use.
type Driver interface {
	NewSession(ctx context.Context) Session
}
