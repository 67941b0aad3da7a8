package cypher

import (
	"strings"

	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

const (
	directiveRelation = "relation"
	directiveProperty = "property"
	directiveIgnore   = "ignore"

	relationDirectionEnum = "RelationDirection"
)

// Relation directions as they appear in @relation(direction:).
const (
	DirectionOut  = "OUT"
	DirectionIn   = "IN"
	DirectionBoth = "BOTH"
)

var declarations = []struct {
	name      string
	directive bool
	sdl       string
}{
	{relationDirectionEnum, false, "enum RelationDirection { IN OUT BOTH }"},
	{directiveRelation, true, "directive @relation(name: String!, direction: RelationDirection = OUT) on FIELD_DEFINITION"},
	{directiveProperty, true, "directive @property(name: String!) on FIELD_DEFINITION"},
	{directiveIgnore, true, "directive @ignore on FIELD_DEFINITION"},
}

// declarationsFor returns the SDL declaring the mapping directives that doc
// does not declare itself.
func declarationsFor(doc *language.SchemaDocument) string {
	var b strings.Builder
	for _, d := range declarations {
		if d.directive && doc.Directives.ForName(d.name) != nil {
			continue
		}
		if !d.directive && doc.Definitions.ForName(d.name) != nil {
			continue
		}
		b.WriteString(d.sdl)
		b.WriteByte('\n')
	}
	return b.String()
}

// propertyName returns the node property backing f.
func propertyName(f *schema.Field) string {
	if name := f.Directive(directiveProperty).StringArg("name"); name != "" {
		return name
	}
	return f.Name
}

func ignored(f *schema.Field) bool { return f.Directive(directiveIgnore) != nil }

// relation describes the relationship behind a field.
type relation struct {
	name      string
	direction string
}

func relationOf(f *schema.Field) (relation, bool) {
	d := f.Directive(directiveRelation)
	if d == nil {
		return relation{}, false
	}
	dir := d.StringArg("direction")
	if dir == "" {
		dir = DirectionOut
	}
	return relation{name: d.StringArg("name"), direction: dir}, true
}

// pattern renders the relationship step between from and to.
func (r relation) pattern(from, to string) string {
	rel := "[:" + quoteIdent(r.name) + "]"
	switch r.direction {
	case DirectionIn:
		return "(" + from + ")<-" + rel + "-(" + to + ")"
	case DirectionBoth:
		return "(" + from + ")-" + rel + "-(" + to + ")"
	default:
		return "(" + from + ")-" + rel + "->(" + to + ")"
	}
}
