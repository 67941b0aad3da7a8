package cypher

import (
	"fmt"
	"sort"
	"strings"

	language "github.com/hanpama/neograph/internal/language"
)

var builtinScalars = map[string]bool{"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true}

// Arguments every generated query field reserves for paging and ordering.
const (
	argFirst   = "first"
	argOffset  = "offset"
	argOrderBy = "orderBy"
)

// document indexes a parsed schema document, folding type extensions into
// the definitions they extend.
type document struct {
	defs   map[string]*language.Definition
	fields map[string][]*language.FieldDefinition
	order  []string

	query, mutation  string
	explicitSchema   bool
	mutationDeclared bool
}

func indexDocument(doc *language.SchemaDocument) *document {
	d := &document{
		defs:     map[string]*language.Definition{},
		fields:   map[string][]*language.FieldDefinition{},
		query:    "Query",
		mutation: "Mutation",
	}
	for _, def := range doc.Definitions {
		d.defs[def.Name] = def
		d.order = append(d.order, def.Name)
		d.fields[def.Name] = append(d.fields[def.Name], def.Fields...)
	}
	for _, ext := range doc.Extensions {
		d.fields[ext.Name] = append(d.fields[ext.Name], ext.Fields...)
	}
	for _, list := range [][]*language.SchemaDefinition{doc.Schema, doc.SchemaExtension} {
		for _, sd := range list {
			d.explicitSchema = true
			for _, op := range sd.OperationTypes {
				switch op.Operation {
				case language.Query:
					d.query = op.Type
				case language.Mutation:
					d.mutation = op.Type
					d.mutationDeclared = true
				}
			}
		}
	}
	return d
}

func (d *document) isRoot(name string) bool {
	return name == d.query || name == d.mutation || name == "Subscription"
}

func (d *document) isLeaf(typeName string) bool {
	if builtinScalars[typeName] {
		return true
	}
	def := d.defs[typeName]
	return def != nil && (def.Kind == language.Scalar || def.Kind == language.Enum)
}

func (d *document) hasField(typeName, field string) bool {
	for _, f := range d.fields[typeName] {
		if f.Name == field {
			return true
		}
	}
	return false
}

// nodeTypes returns the object types that map to node labels, sorted by name.
func (d *document) nodeTypes() []string {
	var out []string
	for _, name := range d.order {
		def := d.defs[name]
		if def.Kind != language.Object || d.isRoot(name) || strings.HasPrefix(name, "__") {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// storedFields returns the leaf fields of typeName kept as node properties.
func (d *document) storedFields(typeName string) []*language.FieldDefinition {
	var out []*language.FieldDefinition
	for _, f := range d.fields[typeName] {
		if f.Directives.ForName(directiveIgnore) != nil || f.Directives.ForName(directiveRelation) != nil {
			continue
		}
		if d.isLeaf(f.Type.Name()) {
			out = append(out, f)
		}
	}
	return out
}

func idField(fields []*language.FieldDefinition) *language.FieldDefinition {
	for _, f := range fields {
		if f.Type.Elem == nil && f.Type.NamedType == "ID" {
			return f
		}
	}
	return nil
}

func scalarFields(fields []*language.FieldDefinition) []*language.FieldDefinition {
	var out []*language.FieldDefinition
	for _, f := range fields {
		if f.Type.Elem != nil {
			continue
		}
		switch f.Name {
		case argFirst, argOffset, argOrderBy:
			continue
		}
		out = append(out, f)
	}
	return out
}

func nullable(t *language.Type) string {
	c := *t
	c.NonNull = false
	return c.String()
}

func orderingEnum(typeName string) string { return "_" + typeName + "Ordering" }

// augment returns SDL adding generated root fields and ordering enums for
// every node type of doc. Fields the document already declares are kept.
func augment(doc *language.SchemaDocument, cfg SchemaConfig) string {
	d := indexDocument(doc)
	var types, queries, mutations strings.Builder

	for _, name := range d.nodeTypes() {
		stored := d.storedFields(name)
		scalars := scalarFields(stored)

		if field := lowerFirst(name); cfg.Query.enabledFor(name) && !d.hasField(d.query, field) {
			var args []string
			for _, f := range scalars {
				args = append(args, fmt.Sprintf("%s: %s", f.Name, f.Type.Name()))
			}
			args = append(args, argFirst+": Int", argOffset+": Int")
			if len(scalars) > 0 {
				fmt.Fprintf(&types, "enum %s {", orderingEnum(name))
				for _, f := range scalars {
					fmt.Fprintf(&types, " %s_asc %s_desc", f.Name, f.Name)
				}
				types.WriteString(" }\n")
				args = append(args, fmt.Sprintf("%s: [%s!]", argOrderBy, orderingEnum(name)))
			}
			fmt.Fprintf(&queries, "  %s(%s): [%s!]!\n", field, strings.Join(args, ", "), name)
		}

		if !cfg.Mutation.enabledFor(name) {
			continue
		}
		if field := "create" + name; !d.hasField(d.mutation, field) && len(stored) > 0 {
			var args []string
			for _, f := range stored {
				args = append(args, fmt.Sprintf("%s: %s", f.Name, f.Type.String()))
			}
			fmt.Fprintf(&mutations, "  %s(%s): %s\n", field, strings.Join(args, ", "), name)
		}
		id := idField(stored)
		if id == nil {
			continue
		}
		args := []string{fmt.Sprintf("%s: ID!", id.Name)}
		for _, f := range stored {
			if f != id {
				args = append(args, fmt.Sprintf("%s: %s", f.Name, nullable(f.Type)))
			}
		}
		for _, kind := range []string{"update", "merge"} {
			if field := kind + name; !d.hasField(d.mutation, field) {
				fmt.Fprintf(&mutations, "  %s(%s): %s\n", field, strings.Join(args, ", "), name)
			}
		}
		if field := "delete" + name; !d.hasField(d.mutation, field) {
			fmt.Fprintf(&mutations, "  %s(%s: ID!): %s\n", field, id.Name, name)
		}
	}

	var out strings.Builder
	out.WriteString(types.String())
	writeRoot(&out, d, d.query, queries.String())
	if mutations.Len() > 0 {
		writeRoot(&out, d, d.mutation, mutations.String())
		if d.explicitSchema && !d.mutationDeclared {
			fmt.Fprintf(&out, "extend schema { mutation: %s }\n", d.mutation)
		}
	}
	return out.String()
}

func writeRoot(out *strings.Builder, d *document, name, fields string) {
	if fields == "" {
		return
	}
	if _, ok := d.defs[name]; ok {
		out.WriteString("extend ")
	}
	fmt.Fprintf(out, "type %s {\n%s}\n", name, fields)
}
