package executor

import "context"

// ExecutionParams describes an operation about to run.
type ExecutionParams struct {
	Query         string
	OperationName string
	// OperationType is "query", "mutation" or "subscription"; empty when the
	// document could not be parsed.
	OperationType string
	Variables     map[string]any
}

// FieldFetchParams describes one async field resolution.
type FieldFetchParams struct {
	ObjectType string
	Field      string
	Path       Path
	Args       map[string]any
}

// Instrumentation hooks into execution phases. Begin methods return a
// completion callback that the Executor calls exactly once.
type Instrumentation interface {
	BeginExecution(ctx context.Context, params ExecutionParams) (context.Context, func(*ExecutionResult))
	BeginFieldFetch(ctx context.Context, params FieldFetchParams) func(value any, err error)
}

// SimpleInstrumentation does nothing. Embed it to implement only some hooks.
type SimpleInstrumentation struct{}

func (SimpleInstrumentation) BeginExecution(ctx context.Context, _ ExecutionParams) (context.Context, func(*ExecutionResult)) {
	return ctx, func(*ExecutionResult) {}
}

func (SimpleInstrumentation) BeginFieldFetch(context.Context, FieldFetchParams) func(any, error) {
	return func(any, error) {}
}

// Chain composes instrumentations into one. Begin hooks and their completion
// callbacks run in the order the instrumentations were given; each begin hook
// sees the context returned by the previous one.
type Chain struct {
	list []Instrumentation
}

// NewChain returns a Chain over list. The slice is copied.
func NewChain(list ...Instrumentation) *Chain {
	return &Chain{list: append([]Instrumentation(nil), list...)}
}

// Instrumentations returns the chained instrumentations in invocation order.
func (c *Chain) Instrumentations() []Instrumentation {
	return append([]Instrumentation(nil), c.list...)
}

func (c *Chain) BeginExecution(ctx context.Context, params ExecutionParams) (context.Context, func(*ExecutionResult)) {
	ends := make([]func(*ExecutionResult), 0, len(c.list))
	for _, in := range c.list {
		var end func(*ExecutionResult)
		ctx, end = in.BeginExecution(ctx, params)
		if end != nil {
			ends = append(ends, end)
		}
	}
	return ctx, func(res *ExecutionResult) {
		for _, end := range ends {
			end(res)
		}
	}
}

func (c *Chain) BeginFieldFetch(ctx context.Context, params FieldFetchParams) func(any, error) {
	ends := make([]func(any, error), 0, len(c.list))
	for _, in := range c.list {
		if end := in.BeginFieldFetch(ctx, params); end != nil {
			ends = append(ends, end)
		}
	}
	return func(v any, err error) {
		for _, end := range ends {
			end(v, err)
		}
	}
}
