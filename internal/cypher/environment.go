package cypher

import (
	"context"

	executor "github.com/hanpama/neograph/internal/executor"
)

// Environment is what a DataFetcher sees of the field being resolved.
type Environment struct {
	ObjectType string
	Field      string
	Args       map[string]any
	// Source is the parent value; nil for root fields.
	Source any
	// Info gives access to the operation and the field's sub-selection.
	Info *executor.ResolveInfo
}

// Cypher is a translated statement. Variable names the column holding the
// projected result in every returned record.
type Cypher struct {
	Query    string
	Params   map[string]any
	Variable string
}

// Delegate translates the field described by an Environment into Cypher.
type Delegate interface {
	Get(env *Environment) (Cypher, error)
}

// DataFetcher resolves a root field. The delegate supplies the statement the
// field translates to; the fetcher decides how to run it. Returning a list
// with one entry per record is expected; non-list fields take the first
// entry.
type DataFetcher func(ctx context.Context, env *Environment, delegate Delegate) (any, error)

// ScalarSerializer converts a stored value of a custom scalar into a JSON-safe
// value.
type ScalarSerializer func(value any) (any, error)

// TypeResolver names the concrete object type of a value of an abstract type.
type TypeResolver func(value any) (string, error)

// DefaultConcurrency bounds the root fields resolved at once.
const DefaultConcurrency = 8

// Wiring holds runtime customizations applied by BuildSchema.
type Wiring struct {
	scalars       map[string]ScalarSerializer
	typeResolvers map[string]TypeResolver
	fetchers      map[string]DataFetcher

	// Concurrency bounds the root fields resolved at once. Zero means
	// DefaultConcurrency. Mutation fields always run one at a time.
	Concurrency int
}

func newWiring() *Wiring {
	return &Wiring{
		scalars:       map[string]ScalarSerializer{},
		typeResolvers: map[string]TypeResolver{},
		fetchers:      map[string]DataFetcher{},
	}
}

// Scalar registers the serializer for the scalar named name.
func (w *Wiring) Scalar(name string, fn ScalarSerializer) *Wiring {
	w.scalars[name] = fn
	return w
}

// TypeResolver registers how values of abstractType pick their object type.
func (w *Wiring) TypeResolver(abstractType string, fn TypeResolver) *Wiring {
	w.typeResolvers[abstractType] = fn
	return w
}

// Fetcher replaces the data fetcher of objectType.field. Fetchers on non-root
// fields receive the parent value as Environment.Source.
func (w *Wiring) Fetcher(objectType, field string, fn DataFetcher) *Wiring {
	w.fetchers[objectType+"."+field] = fn
	return w
}

func (w *Wiring) fetcher(objectType, field string) DataFetcher {
	return w.fetchers[objectType+"."+field]
}

func (w *Wiring) concurrency() int {
	if w.Concurrency > 0 {
		return w.Concurrency
	}
	return DefaultConcurrency
}
