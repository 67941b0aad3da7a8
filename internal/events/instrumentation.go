package events

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	eventbus "github.com/hanpama/neograph/internal/eventbus"
	executor "github.com/hanpama/neograph/internal/executor"
)

var nextID atomic.Uint64

// NextID returns a process-unique id for pairing start and finish events.
func NextID() uint64 { return nextID.Add(1) }

// Instrumentation publishes GraphQL and field fetch events to the global bus.
// It is the bridge between executor hooks and eventbus subscribers (logging,
// tracing, metrics).
type Instrumentation struct{}

var _ executor.Instrumentation = Instrumentation{}

func (Instrumentation) BeginExecution(ctx context.Context, p executor.ExecutionParams) (context.Context, func(*executor.ExecutionResult)) {
	start := time.Now()
	eventbus.Publish(ctx, GraphQLStart{Query: p.Query, OperationName: p.OperationName, OperationType: p.OperationType})
	return ctx, func(res *executor.ExecutionResult) {
		var errs []error
		if res != nil {
			errs = make([]error, len(res.Errors))
			for i := range res.Errors {
				errs[i] = res.Errors[i]
			}
		}
		eventbus.Publish(ctx, GraphQLFinish{
			Query:         p.Query,
			OperationName: p.OperationName,
			OperationType: p.OperationType,
			Errors:        errs,
			Duration:      time.Since(start),
		})
	}
}

func (Instrumentation) BeginFieldFetch(ctx context.Context, p executor.FieldFetchParams) func(any, error) {
	id := NextID()
	path := PathString(p.Path)
	start := time.Now()
	eventbus.Publish(ctx, FieldFetchStart{ID: id, ObjectType: p.ObjectType, Field: p.Field, Path: path})
	return func(_ any, err error) {
		eventbus.Publish(ctx, FieldFetchFinish{
			ID:         id,
			ObjectType: p.ObjectType,
			Field:      p.Field,
			Path:       path,
			Err:        err,
			Duration:   time.Since(start),
		})
	}
}

// PathString renders a response path as "a.b[0].c".
func PathString(p executor.Path) string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}
