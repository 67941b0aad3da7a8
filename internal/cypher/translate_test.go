package cypher

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTranslate_Queries(t *testing.T) {
	knows := projectionKey("knows", map[string]any{"first": 3})
	knowsVar := "person_" + knows

	tests := []struct {
		name   string
		query  string
		field  string
		want   string
		params map[string]any
	}{
		{
			name:  "filter order and limit",
			query: `{ person(name: "Ada", first: 2, orderBy: [born_desc]) { name nick secret } }`,
			field: "person",
			want: "MATCH (person:Person) WHERE person.name = $personName" +
				" WITH person ORDER BY person.born DESC LIMIT $personFirst" +
				" RETURN person {.name, nick: person.nickname} AS person",
			params: map[string]any{"personName": "Ada", "personFirst": int64(2)},
		},
		{
			name:  "offset only",
			query: `{ person(offset: 5) { id } }`,
			field: "person",
			want:  "MATCH (person:Person) WITH person SKIP $personOffset RETURN person {.id} AS person",
			params: map[string]any{"personOffset": int64(5)},
		},
		{
			name:  "relations",
			query: `{ person(id: "1") { name knows(first: 3) { name } bestFriend { name } fans { name } } }`,
			field: "person",
			want: "MATCH (person:Person) WHERE person.id = $personId RETURN person {.name, " +
				knows + ": [(person)-[:KNOWS]->(" + knowsVar + ":Person) | " + knowsVar + " {.name}][..$" + knowsVar + "First], " +
				"bestFriend: head([(person)-[:BEST_FRIEND]->(person_bestFriend:Person) | person_bestFriend {.name}]), " +
				"fans: [(person)<-[:FAN_OF]-(person_fans:Person) | person_fans {.name}]} AS person",
			params: map[string]any{"personId": "1", knowsVar + "First": int64(3)},
		},
		{
			name:   "union",
			query:  `{ things { __typename ... on Person { name } ... on Movie { title } } }`,
			field:  "things",
			want:   "MATCH (things) WHERE (things:Movie OR things:Person) RETURN things {__labels: labels(things), .title, .name} AS things",
			params: map[string]any{},
		},
		{
			name:   "interface",
			query:  `{ named(name: "x") { name } }`,
			field:  "named",
			want:   "MATCH (named:Named) WHERE named.name = $namedName RETURN named {__labels: labels(named), .name} AS named",
			params: map[string]any{"namedName": "x"},
		},
		{
			name:   "list argument becomes IN",
			query:  `{ people(name: ["Ada", "Alan"]) { name } }`,
			field:  "people",
			want:   "MATCH (people:Person) WHERE people.name IN $peopleName RETURN people {.name} AS people",
			params: map[string]any{"peopleName": []any{"Ada", "Alan"}},
		},
		{
			name:   "null argument",
			query:  `{ person(name: null) { name } }`,
			field:  "person",
			want:   "MATCH (person:Person) WHERE person.name IS NULL RETURN person {.name} AS person",
			params: map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			exec := mustBuild(t, moviesSDL, SchemaConfig{}, rec.fetch)
			res := run(t, exec, tt.query, nil)
			require.Empty(t, res.Errors)

			got := rec.get(t, tt.field)
			if diff := cmp.Diff(tt.want, got.Query); diff != "" {
				t.Fatalf("query mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.params, got.Params); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, tt.field, got.Variable)
		})
	}
}

func TestTranslate_Mutations(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		field  string
		want   string
		params map[string]any
	}{
		{
			name:  "create",
			query: `mutation { createPerson(id: "1", name: "Ada") { id name } }`,
			field: "createPerson",
			want: "CREATE (createPerson:Person:Named $createPersonProps) WITH createPerson" +
				" RETURN createPerson {.id, .name} AS createPerson",
			params: map[string]any{"createPersonProps": map[string]any{"id": "1", "name": "Ada"}},
		},
		{
			name:  "update",
			query: `mutation { updatePerson(id: "1", nick: "A") { nick } }`,
			field: "updatePerson",
			want: "MATCH (updatePerson:Person {id: $updatePersonId}) SET updatePerson += $updatePersonProps" +
				" WITH updatePerson RETURN updatePerson {nick: updatePerson.nickname} AS updatePerson",
			params: map[string]any{"updatePersonId": "1", "updatePersonProps": map[string]any{"nickname": "A"}},
		},
		{
			name:  "merge",
			query: `mutation { mergePerson(id: "1", born: 1815) { id } }`,
			field: "mergePerson",
			want: "MERGE (mergePerson:Person {id: $mergePersonId}) SET mergePerson += $mergePersonProps" +
				" SET mergePerson:Named WITH mergePerson RETURN mergePerson {.id} AS mergePerson",
			params: map[string]any{"mergePersonId": "1", "mergePersonProps": map[string]any{"born": int64(1815)}},
		},
		{
			name:  "delete",
			query: `mutation { deletePerson(id: "1") { id } }`,
			field: "deletePerson",
			want: "MATCH (deletePerson:Person {id: $deletePersonId}) WITH deletePerson AS toDelete," +
				" deletePerson {.id} AS deletePerson DETACH DELETE toDelete RETURN deletePerson",
			params: map[string]any{"deletePersonId": "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			exec := mustBuild(t, moviesSDL, SchemaConfig{}, rec.fetch)
			res := run(t, exec, tt.query, nil)
			require.Empty(t, res.Errors)

			got := rec.get(t, tt.field)
			require.Equal(t, tt.want, got.Query)
			if diff := cmp.Diff(tt.params, got.Params); diff != "" {
				t.Fatalf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranslate_VariablesAreNormalized(t *testing.T) {
	rec := newRecorder()
	exec := mustBuild(t, moviesSDL, SchemaConfig{}, rec.fetch)
	res := run(t, exec, `query($first: Int) { person(first: $first) { name } }`, map[string]any{"first": json.Number("7")})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"personFirst": int64(7)}, rec.get(t, "person").Params)
}

func TestTranslate_AliasesWithDifferentArguments(t *testing.T) {
	rec := newRecorder()
	exec := mustBuild(t, moviesSDL, SchemaConfig{}, rec.fetch)
	res := run(t, exec, `{ me { a: knows(first: 1) { name } b: knows(first: 2) { name } } }`, nil)
	require.Empty(t, res.Errors)

	q := rec.get(t, "me").Query
	require.Contains(t, q, projectionKey("knows", map[string]any{"first": 1})+": [")
	require.Contains(t, q, projectionKey("knows", map[string]any{"first": 2})+": [")
}

const orderSDL = `
type Order {
  id: ID!
  name: String
  Name: String
}
`

func TestTranslate_ReservedWordVariable(t *testing.T) {
	rec := newRecorder()
	exec := mustBuild(t, orderSDL, SchemaConfig{}, rec.fetch)
	res := run(t, exec, `{ order(id: "1", first: 2, orderBy: [id_desc]) { id } }`, nil)
	require.Empty(t, res.Errors)

	got := rec.get(t, "order")
	require.Equal(t, "MATCH (`order`:Order) WHERE `order`.id = $orderId"+
		" WITH `order` ORDER BY `order`.id DESC LIMIT $orderFirst"+
		" RETURN `order` {.id} AS `order`", got.Query)
	require.Equal(t, map[string]any{"orderId": "1", "orderFirst": int64(2)}, got.Params)
	require.Equal(t, "order", got.Variable)
}

func TestTranslate_ParameterNamesDoNotCollide(t *testing.T) {
	rec := newRecorder()
	exec := mustBuild(t, orderSDL, SchemaConfig{}, rec.fetch)
	res := run(t, exec, `{ order(name: "lower", Name: "upper") { name Name } }`, nil)
	require.Empty(t, res.Errors)

	got := rec.get(t, "order")
	require.Equal(t, "MATCH (`order`:Order) WHERE `order`.Name = $orderName AND `order`.name = $orderName_2"+
		" RETURN `order` {.name, .Name} AS `order`", got.Query)
	require.Equal(t, map[string]any{"orderName": "upper", "orderName_2": "lower"}, got.Params)
}

func TestTranslate_Errors(t *testing.T) {
	rec := newRecorder()
	exec := mustBuild(t, moviesSDL, SchemaConfig{}, rec.fetch)

	res := run(t, exec, `{ search(term: "x") { name } me { name } }`, nil)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "argument term does not match a property of Person")
	require.Equal(t, "search", res.Errors[0].Path[0])
	rec.get(t, "me")
}

func TestTranslate_NoResolveInfo(t *testing.T) {
	tr := NewTranslator(nil)
	_, err := tr.Get(&Environment{ObjectType: "Query", Field: "person"})
	require.ErrorContains(t, err, "no resolve info")
}

func TestQuoteIdent(t *testing.T) {
	require.Equal(t, "name", quoteIdent("name"))
	require.Equal(t, "`first name`", quoteIdent("first name"))
	require.Equal(t, "`a``b`", quoteIdent("a`b"))
	require.Equal(t, "`1a`", quoteIdent("1a"))
}

func TestVariable(t *testing.T) {
	require.Equal(t, "person", variable("person"))
	require.Equal(t, "`order`", variable("order"))
	require.Equal(t, "`Match`", variable("Match"))
	require.Equal(t, "`first name`", variable("first name"))
	require.Equal(t, "order_items", variable("order_items"))
}
