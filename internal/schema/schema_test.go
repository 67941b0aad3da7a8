package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const testSDL = `
directive @relation(name: String!, direction: Direction = OUT) on FIELD_DEFINITION

enum Direction { IN OUT BOTH }

interface Named { name: String! }

type Person implements Named {
  id: ID!
  name: String!
  born: Int @deprecated(reason: "use birthDate")
  knows(first: Int = 10): [Person!]! @relation(name: "KNOWS")
}

type Movie implements Named {
  name: String!
}

union SearchResult = Person | Movie

input PersonFilter { name: String, born: Int = 1970 }

type Query {
  person(id: ID!): Person
  search(term: String!): [SearchResult!]!
}
`

func TestBuildFromSDL(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)
	require.NotNil(t, sch.AST)

	require.Equal(t, "Query", sch.QueryType)
	require.Empty(t, sch.MutationType)

	query := sch.GetQueryType()
	require.NotNil(t, query)
	var names []string
	for _, f := range query.Fields {
		names = append(names, f.Name)
		require.True(t, f.Async, "root field %s should be async", f.Name)
	}
	if diff := cmp.Diff([]string{"person", "search"}, names); diff != "" {
		t.Fatalf("query fields mismatch (-want +got):\n%s", diff)
	}

	person := sch.Types["Person"]
	require.Equal(t, TypeKindObject, person.Kind)
	require.Equal(t, []string{"Named"}, person.Interfaces)
	require.False(t, person.Field("name").Async)

	born := person.Field("born")
	require.True(t, born.IsDeprecated)
	require.Equal(t, "use birthDate", born.DeprecationReason)

	knows := person.Field("knows")
	rel := knows.Directive("relation")
	require.NotNil(t, rel)
	require.Equal(t, "KNOWS", rel.StringArg("name"))
	require.Equal(t, "OUT", rel.StringArg("direction"), "default argument should be applied")
	require.Equal(t, int64(10), knows.Arguments[0].DefaultValue)
	require.Equal(t, "[Person!]!", knows.Type.String())

	require.ElementsMatch(t, []string{"Person", "Movie"}, sch.Types["Named"].PossibleTypes)
	require.ElementsMatch(t, []string{"Person", "Movie"}, sch.Types["SearchResult"].PossibleTypes)
	require.True(t, sch.IsPossibleType("SearchResult", "Movie"))
	require.False(t, sch.IsPossibleType("SearchResult", "Query"))

	require.NotNil(t, sch.Types["__Schema"], "introspection types come from the prelude")
	require.Nil(t, query.Field("__schema"))
}

func TestBuildFromSDLInvalid(t *testing.T) {
	_, err := BuildFromSDL(`type Query { person: Missing }`)
	require.Error(t, err)
}

func TestRenderRoundTrip(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	first := Render(sch)
	require.Contains(t, first, `@relation(direction: OUT, name: "KNOWS")`)
	require.NotContains(t, first, "scalar String")

	again, err := BuildFromSDL(first)
	require.NoError(t, err, "rendered SDL must parse:\n%s", first)
	if diff := cmp.Diff(first, Render(again)); diff != "" {
		t.Errorf("render is not stable (-first +second):\n%s", diff)
	}
}

func TestRenderSchemaDefinition(t *testing.T) {
	sch, err := BuildFromSDL(`schema { query: Root } type Root { ok: Boolean }`)
	require.NoError(t, err)
	require.Contains(t, Render(sch), "schema {\n  query: Root\n}\n")
}
