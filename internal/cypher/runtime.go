package cypher

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"golang.org/x/sync/errgroup"

	executor "github.com/hanpama/neograph/internal/executor"
	schema "github.com/hanpama/neograph/internal/schema"
)

// labelsKey carries the node labels of values of abstract types.
const labelsKey = "__labels"

// Runtime implements executor.Runtime for schemas built by BuildSchema.
//   - Root fields are async. Each task calls the data fetcher once with the
//     Translator as delegate. Tasks of one depth fan out up to the wiring's
//     concurrency limit; mutation tasks run one after another in field order.
//   - Non-root fields read the map projections the root statement returned,
//     keyed by projectionKey. Nodes and relationships returned by custom
//     fetchers are read by property name.
//   - Non-list fields take the first entry of a list result, or null.
type Runtime struct {
	schema     *schema.Schema
	fetch      DataFetcher
	translator *Translator
	wiring     *Wiring
}

var _ executor.Runtime = (*Runtime)(nil)

func NewRuntime(s *schema.Schema, fetch DataFetcher, w *Wiring) *Runtime {
	if w == nil {
		w = newWiring()
	}
	return &Runtime{
		schema:     s,
		fetch:      fetch,
		translator: NewTranslator(s),
		wiring:     w,
	}
}

// Translator returns the delegate handed to data fetchers.
func (r *Runtime) Translator() *Translator { return r.translator }

func (r *Runtime) field(objectType, field string) *schema.Field {
	t := r.schema.Types[objectType]
	if t == nil {
		return nil
	}
	return t.Field(field)
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	def := r.field(objectType, field)
	if def == nil {
		return nil, fmt.Errorf("unknown field %s.%s", objectType, field)
	}
	if fetch := r.wiring.fetcher(objectType, field); fetch != nil {
		v, err := fetch(ctx, &Environment{ObjectType: objectType, Field: field, Args: args, Source: source}, r.translator)
		if err != nil {
			return nil, err
		}
		return shape(def, v), nil
	}
	switch src := source.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return src[projectionKey(field, args)], nil
	case dbtype.Node:
		return src.Props[propertyName(def)], nil
	case *dbtype.Node:
		return src.Props[propertyName(def)], nil
	case dbtype.Relationship:
		return src.Props[propertyName(def)], nil
	}
	return nil, fmt.Errorf("cannot read %s.%s from %T", objectType, field, source)
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if tasks[0].ObjectType == r.schema.MutationType {
		for i, task := range tasks {
			results[i] = r.resolve(ctx, task)
		}
		return results
	}
	var g errgroup.Group
	g.SetLimit(r.wiring.concurrency())
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = r.resolve(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.AsyncResolveTask) executor.AsyncResolveResult {
	def := r.field(task.ObjectType, task.Field)
	if def == nil {
		return executor.AsyncResolveResult{Error: fmt.Errorf("unknown field %s.%s", task.ObjectType, task.Field)}
	}
	fetch := r.wiring.fetcher(task.ObjectType, task.Field)
	if fetch == nil {
		fetch = r.fetch
	}
	env := &Environment{
		ObjectType: task.ObjectType,
		Field:      task.Field,
		Args:       task.Args,
		Source:     task.Source,
		Info:       task.Info,
	}
	v, err := fetch(ctx, env, r.translator)
	if err != nil {
		return executor.AsyncResolveResult{Error: err}
	}
	return executor.AsyncResolveResult{Value: shape(def, v)}
}

// shape unwraps a list result for a non-list field.
func shape(def *schema.Field, v any) any {
	if schema.IsList(def.Type) {
		return v
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if resolve := r.wiring.typeResolvers[abstractType]; resolve != nil {
		return resolve(value)
	}
	var labels []string
	switch v := value.(type) {
	case map[string]any:
		switch l := v[labelsKey].(type) {
		case []string:
			labels = l
		case []any:
			for _, e := range l {
				if s, ok := e.(string); ok {
					labels = append(labels, s)
				}
			}
		}
	case dbtype.Node:
		labels = v.Labels
	case *dbtype.Node:
		labels = v.Labels
	}
	for _, label := range labels {
		if t := r.schema.Types[label]; t != nil && t.Kind == schema.TypeKindObject && r.schema.IsPossibleType(abstractType, label) {
			return label, nil
		}
	}
	return "", fmt.Errorf("cannot resolve %s from labels %v", abstractType, labels)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if serialize := r.wiring.scalars[typeName]; serialize != nil {
		return serialize(value)
	}
	return serializeLeaf(typeName, value)
}
