package introspection

import (
	"sync"

	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

// preludeTypes are the introspection types and built-in scalars of the
// gqlparser prelude, converted once. Schemas assembled by hand borrow them.
var preludeTypes = sync.OnceValue(func() map[string]*schema.Type {
	s, err := language.LoadSchema(&language.Source{Name: "prelude", Input: "type Query { _: Boolean }"})
	if err != nil {
		panic(err)
	}
	built, err := schema.BuildFromAST(s, nil)
	if err != nil {
		panic(err)
	}
	out := map[string]*schema.Type{}
	for name, t := range built.Types {
		if schema.IsBuiltinType(name) {
			out[name] = t
		}
	}
	return out
})

// extendSchemaWithIntrospection returns a copy of original whose query type
// carries the __schema and __type meta fields.
func extendSchemaWithIntrospection(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)),
		Directives:       original.Directives,
		Description:      original.Description,
		AST:              original.AST,
	}
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for name, typ := range preludeTypes() {
		if _, exists := extended.Types[name]; !exists {
			extended.Types[name] = typ
		}
	}

	queryType := extended.GetQueryType()
	if queryType == nil {
		return extended
	}
	queryCopy := *queryType
	queryCopy.Fields = make([]*schema.Field, 0, len(queryType.Fields)+2)
	queryCopy.Fields = append(queryCopy.Fields, queryType.Fields...)
	queryCopy.Fields = append(queryCopy.Fields,
		&schema.Field{
			Name:        "__schema",
			Description: "Access the current type schema of this server.",
			Type:        schema.NonNullType(schema.NamedType("__Schema")),
		},
		&schema.Field{
			Name:        "__type",
			Description: "Request the type information of a single type.",
			Arguments: []*schema.InputValue{{
				Name: "name",
				Type: schema.NonNullType(schema.NamedType("String")),
			}},
			Type: schema.NamedType("__Type"),
		},
	)
	extended.Types[queryCopy.Name] = &queryCopy
	return extended
}
