package executor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/neograph/internal/executor"
	schema "github.com/hanpama/neograph/internal/schema"
)

type ctxKey struct{}

// recorder appends one line per hook invocation to a shared log.
type recorder struct {
	name string
	log  *[]string
}

func (r recorder) BeginExecution(ctx context.Context, p executor.ExecutionParams) (context.Context, func(*executor.ExecutionResult)) {
	*r.log = append(*r.log, fmt.Sprintf("%s:begin %s", r.name, p.OperationType))
	return context.WithValue(ctx, ctxKey{}, r.name), func(res *executor.ExecutionResult) {
		*r.log = append(*r.log, fmt.Sprintf("%s:end errors=%d", r.name, len(res.Errors)))
	}
}

func (r recorder) BeginFieldFetch(_ context.Context, p executor.FieldFetchParams) func(any, error) {
	*r.log = append(*r.log, fmt.Sprintf("%s:fetch %s.%s", r.name, p.ObjectType, p.Field))
	return func(v any, err error) {
		*r.log = append(*r.log, fmt.Sprintf("%s:fetched %v %v", r.name, v, err))
	}
}

func simpleSchema() *schema.Schema {
	return &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "a", Type: schema.NamedType("String")},
					{Name: "b", Type: schema.NamedType("String"), Async: true},
				},
			},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
}

func TestInstrumentation_ChainOrder(t *testing.T) {
	var log []string
	chain := executor.NewChain(recorder{"first", &log}, recorder{"second", &log})
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.a": executor.NewMockValueResolver("A"),
		"Query.b": func(ctx context.Context, _ any, _ map[string]any) (any, error) {
			// Context set by the last begin hook reaches the runtime.
			return ctx.Value(ctxKey{}), nil
		},
	})
	exec := executor.NewBuilder(executor.ExecutableSchema{Schema: simpleSchema(), Runtime: rt}).
		WithInstrumentation(chain).
		Build()

	res := exec.Execute(context.Background(), executor.Request{Query: "{ a b }"})

	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"a": "A", "b": "second"}, res.Data)
	want := []string{
		"first:begin query",
		"second:begin query",
		"first:fetch Query.b",
		"second:fetch Query.b",
		"first:fetched second <nil>",
		"second:fetched second <nil>",
		"first:end errors=0",
		"second:end errors=0",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Fatalf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestInstrumentation_ObservesRejectedRequests(t *testing.T) {
	sch, err := schema.BuildFromSDL(`type Query { a: String }`)
	require.NoError(t, err)

	t.Run("Parse error", func(t *testing.T) {
		var log []string
		rt := executor.NewMockRuntime(nil)
		exec := executor.NewBuilder(executor.ExecutableSchema{Schema: sch, Runtime: rt}).
			WithInstrumentation(recorder{"r", &log}).
			Build()

		res := exec.Execute(context.Background(), executor.Request{Query: "{"})

		require.Nil(t, res.Data)
		require.Len(t, res.Errors, 1)
		require.NotEmpty(t, res.Errors[0].Locations)
		require.Equal(t, []string{"r:begin ", "r:end errors=1"}, log)
		require.Empty(t, rt.GetCalls())
	})

	t.Run("Validation error", func(t *testing.T) {
		var log []string
		rt := executor.NewMockRuntime(nil)
		exec := executor.NewBuilder(executor.ExecutableSchema{Schema: sch, Runtime: rt}).
			WithInstrumentation(recorder{"r", &log}).
			Build()

		res := exec.Execute(context.Background(), executor.Request{Query: "{ nope }"})

		require.Nil(t, res.Data)
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0].Message, "nope")
		require.Equal(t, []string{"r:begin query", "r:end errors=1"}, log)
		require.Empty(t, rt.GetCalls())
	})
}

func TestBuilder_Instrumentation(t *testing.T) {
	es := executor.ExecutableSchema{Schema: simpleSchema(), Runtime: executor.NewMockRuntime(nil)}

	b := executor.NewBuilder(es)
	require.Nil(t, b.Instrumentation())
	require.Nil(t, b.Build().Instrumentation())
	require.Same(t, es.Schema, b.Build().Schema())

	chain := executor.NewChain(executor.SimpleInstrumentation{})
	b.WithInstrumentation(chain)
	require.Same(t, chain, b.Instrumentation())
	require.Same(t, chain, b.Build().Instrumentation())
	require.Len(t, chain.Instrumentations(), 1)
}
