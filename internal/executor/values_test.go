package executor

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

func TestCoerceArgumentValues(t *testing.T) {
	fieldDef := &schema.Field{
		Name: "people",
		Arguments: []*schema.InputValue{
			{Name: "name", Type: schema.NamedType("String")},
			{Name: "first", Type: schema.NamedType("Int")},
			{Name: "direction", Type: schema.NamedType("Direction"), DefaultValue: schema.EnumLiteral("OUT")},
			{Name: "filter", Type: schema.NamedType("PersonFilter")},
			{Name: "ids", Type: schema.ListType(schema.NamedType("ID"))},
		},
	}
	field := func(t *testing.T, q string) *language.Field {
		doc := mustParseQuery(t, q)
		return doc.Operations[0].SelectionSet[0].(*language.Field)
	}

	t.Run("Defaults and literals", func(t *testing.T) {
		got, errs := coerceArgumentValues(fieldDef, field(t, `{ people(name: "Ann", ids: 7) }`).Arguments, nil)
		require.Empty(t, errs)
		want := map[string]any{"name": "Ann", "direction": "OUT", "ids": []any{"7"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nested variables", func(t *testing.T) {
		vars := map[string]any{"n": "Bob", "f": json.Number("3")}
		got, errs := coerceArgumentValues(fieldDef, field(t, `query($n: String, $f: Int) { people(filter: {name: $n, tags: [$n]}, first: $f) }`).Arguments, vars)
		require.Empty(t, errs)
		want := map[string]any{
			"filter":    map[string]any{"name": "Bob", "tags": []any{"Bob"}},
			"first":     3,
			"direction": "OUT",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unset variable falls back to default", func(t *testing.T) {
		got, errs := coerceArgumentValues(fieldDef, field(t, `query($d: Direction) { people(direction: $d) }`).Arguments, map[string]any{})
		require.Empty(t, errs)
		require.Equal(t, map[string]any{"direction": "OUT"}, got)
	})

	t.Run("Coercion failure", func(t *testing.T) {
		got, errs := coerceArgumentValues(fieldDef, field(t, `{ people(first: "many") }`).Arguments, nil)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0].Error(), "argument 'first' cannot be coerced")
		require.NotContains(t, got, "first")
	})
}

func TestCoerceArgumentValues_RequiredMissing(t *testing.T) {
	fieldDef := &schema.Field{
		Name:      "person",
		Arguments: []*schema.InputValue{{Name: "id", Type: schema.NonNullType(schema.NamedType("ID"))}},
	}
	_, errs := coerceArgumentValues(fieldDef, nil, nil)
	require.Len(t, errs, 1)
	require.Equal(t, "argument 'id' of required type ID! was not provided", errs[0].Error())
}

func TestPlainValue(t *testing.T) {
	in := map[string]any{
		"dir":  schema.EnumLiteral("IN"),
		"list": []any{schema.EnumLiteral("A"), 1},
	}
	want := map[string]any{"dir": "IN", "list": []any{"A", 1}}
	if diff := cmp.Diff(want, plainValue(in)); diff != "" {
		t.Fatalf("plainValue mismatch (-want +got):\n%s", diff)
	}
}
