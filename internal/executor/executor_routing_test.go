package executor_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	executor "github.com/hanpama/neograph/internal/executor"
	schema "github.com/hanpama/neograph/internal/schema"
)

func TestRouting_SyncVsAsync_Calls(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "a", Type: schema.NamedType("String"), Async: false},
					{Name: "b", Type: schema.NamedType("String"), Async: true},
				},
			},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.a": executor.NewMockValueResolver("A"),
		"Query.b": executor.NewMockValueResolver("B"),
	})
	exec := executor.NewExecutor(rt, sch)

	gotRes := exec.ExecuteRequest(context.Background(), mustParse(t, "{ a b }"), "", nil, nil)

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"a": "A", "b": "B"},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []executor.Call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, Path: executor.Path{"b"}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// A root field returning a nested object graph is one batch: everything below
// it is a synchronous projection.
func TestRouting_GraphRootIsSingleBatch_Calls(t *testing.T) {
	sch, err := schema.BuildFromSDL(`
		type Person { name: String friends: [Person] }
		type Query { people: [Person] }
	`)
	if err != nil {
		t.Fatal(err)
	}
	prop := func(key string) executor.MockResolver {
		return func(_ context.Context, src any, _ map[string]any) (any, error) {
			return src.(map[string]any)[key], nil
		}
	}
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.people": executor.NewMockValueResolver([]any{
			map[string]any{"name": "Ann", "friends": []any{map[string]any{"name": "Bob"}}},
		}),
		"Person.name":    prop("name"),
		"Person.friends": prop("friends"),
	})
	exec := executor.NewExecutor(rt, sch)

	gotRes := exec.Execute(context.Background(), executor.Request{Query: "{ people { name friends { name } } }"})

	wantData := map[string]any{
		"people": []any{
			map[string]any{"name": "Ann", "friends": []any{map[string]any{"name": "Bob"}}},
		},
	}
	if diff := cmp.Diff(wantData, gotRes.Data); diff != "" {
		t.Fatalf("Data mismatch (-want +got):\n%s", diff)
	}
	if len(gotRes.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", gotRes.Errors)
	}

	batches := map[int]bool{}
	for _, c := range rt.GetCalls() {
		if c.Kind == executor.CallKindAsync {
			batches[c.BatchID] = true
		}
	}
	if len(batches) != 1 {
		t.Fatalf("expected exactly one batch, got %d", len(batches))
	}
}

func TestRouting_MutationRoot_Result(t *testing.T) {
	sch, err := schema.BuildFromSDL(`
		type Query { ok: Boolean }
		type Mutation { createThing(name: String!): String }
	`)
	if err != nil {
		t.Fatal(err)
	}
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Mutation.createThing": func(_ context.Context, _ any, args map[string]any) (any, error) {
			return "created " + args["name"].(string), nil
		},
	})
	exec := executor.NewExecutor(rt, sch)

	gotRes := exec.Execute(context.Background(), executor.Request{
		Query:     `mutation($n: String!) { createThing(name: $n) }`,
		Variables: map[string]any{"n": "x"},
	})
	if diff := cmp.Diff(map[string]any{"createThing": "created x"}, gotRes.Data); diff != "" {
		t.Fatalf("Data mismatch (-want +got):\n%s", diff)
	}
}
