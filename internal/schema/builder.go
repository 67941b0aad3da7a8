package schema

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/neograph/internal/language"
)

// AsyncFunc decides whether a field is resolved through the runtime's batch
// path (true) or synchronously from its parent value (false).
type AsyncFunc func(parent *ast.Definition, field *ast.FieldDefinition) bool

// RootFieldsAsync marks fields of the operation root types as async and every
// other field as a synchronous projection.
func RootFieldsAsync(s *ast.Schema) AsyncFunc {
	roots := map[string]bool{}
	for _, d := range []*ast.Definition{s.Query, s.Mutation, s.Subscription} {
		if d != nil {
			roots[d.Name] = true
		}
	}
	return func(parent *ast.Definition, _ *ast.FieldDefinition) bool {
		return roots[parent.Name]
	}
}

// BuildFromSDL parses and validates sdl and returns the corresponding Schema.
// Root operation fields are async; all other fields are sync.
func BuildFromSDL(sdl string) (*Schema, error) {
	s, err := language.LoadSchema(&language.Source{Name: "schema.graphqls", Input: sdl})
	if err != nil {
		return nil, err
	}
	return BuildFromAST(s, RootFieldsAsync(s))
}

// BuildFromAST converts a validated gqlparser schema into the executor model.
// Introspection types from the prelude are kept; the meta fields gqlparser
// injects into the query type (__schema, __type) are not.
func BuildFromAST(s *ast.Schema, async AsyncFunc) (*Schema, error) {
	if s == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if async == nil {
		async = RootFieldsAsync(s)
	}
	out := &Schema{
		Types:       make(map[string]*Type, len(s.Types)),
		Directives:  make(map[string]*Directive, len(s.Directives)),
		Description: s.Description,
		AST:         s,
	}
	if s.Query != nil {
		out.QueryType = s.Query.Name
	}
	if s.Mutation != nil {
		out.MutationType = s.Mutation.Name
	}
	if s.Subscription != nil {
		out.SubscriptionType = s.Subscription.Name
	}

	for name, def := range s.Types {
		t, err := buildType(s, def, async)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", name, err)
		}
		out.Types[name] = t
	}
	for name, def := range s.Directives {
		d, err := buildDirective(def)
		if err != nil {
			return nil, fmt.Errorf("directive @%s: %w", name, err)
		}
		out.Directives[name] = d
	}
	return out, nil
}

func buildType(s *ast.Schema, def *ast.Definition, async AsyncFunc) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case ast.Scalar:
		t.Kind = TypeKindScalar
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	case ast.Object, ast.Interface:
		t.Kind = TypeKindObject
		if def.Kind == ast.Interface {
			t.Kind = TypeKindInterface
		}
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			f, err := buildField(s, def, fd, async)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, f)
		}
	case ast.Union:
		t.Kind = TypeKindUnion
	case ast.Enum:
		t.Kind = TypeKindEnum
		for _, ev := range def.EnumValues {
			v := &EnumValue{Name: ev.Name, Description: ev.Description}
			v.IsDeprecated, v.DeprecationReason = deprecation(ev.Directives)
			t.EnumValues = append(t.EnumValues, v)
		}
	case ast.InputObject:
		t.Kind = TypeKindInputObject
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, fd := range def.Fields {
			iv, err := buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives)
			if err != nil {
				return nil, err
			}
			t.InputFields = append(t.InputFields, iv)
		}
	default:
		return nil, fmt.Errorf("unsupported kind %s", def.Kind)
	}
	if t.Kind.IsAbstract() {
		for _, pt := range s.PossibleTypes[def.Name] {
			t.PossibleTypes = append(t.PossibleTypes, pt.Name)
		}
	}
	ds, err := applyDirectives(s, def.Directives)
	if err != nil {
		return nil, err
	}
	t.Directives = ds
	return t, nil
}

func buildField(s *ast.Schema, parent *ast.Definition, fd *ast.FieldDefinition, async AsyncFunc) (*Field, error) {
	f := &Field{
		Name:        fd.Name,
		Description: fd.Description,
		Type:        typeRefFromAST(fd.Type),
		Async:       async(parent, fd),
	}
	f.IsDeprecated, f.DeprecationReason = deprecation(fd.Directives)
	for _, a := range fd.Arguments {
		iv, err := buildInputValue(a.Name, a.Description, a.Type, a.DefaultValue, a.Directives)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		f.Arguments = append(f.Arguments, iv)
	}
	ds, err := applyDirectives(s, fd.Directives)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fd.Name, err)
	}
	f.Directives = ds
	return f, nil
}

func buildInputValue(name, desc string, typ *ast.Type, def *ast.Value, dirs ast.DirectiveList) (*InputValue, error) {
	iv := &InputValue{Name: name, Description: desc, Type: typeRefFromAST(typ)}
	if def != nil {
		v, err := constValue(def)
		if err != nil {
			return nil, fmt.Errorf("default value of %s: %w", name, err)
		}
		iv.DefaultValue = v
	}
	iv.IsDeprecated, iv.DeprecationReason = deprecation(dirs)
	return iv, nil
}

func buildDirective(def *ast.DirectiveDefinition) (*Directive, error) {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, a := range def.Arguments {
		iv, err := buildInputValue(a.Name, a.Description, a.Type, a.DefaultValue, a.Directives)
		if err != nil {
			return nil, err
		}
		d.Arguments = append(d.Arguments, iv)
	}
	return d, nil
}

// applyDirectives evaluates directive uses, filling in argument defaults from
// their definitions.
func applyDirectives(s *ast.Schema, list ast.DirectiveList) ([]*AppliedDirective, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]*AppliedDirective, 0, len(list))
	for _, d := range list {
		ad := &AppliedDirective{Name: d.Name, Args: map[string]any{}}
		if def := s.Directives[d.Name]; def != nil {
			for _, a := range def.Arguments {
				if a.DefaultValue == nil {
					continue
				}
				v, err := constValue(a.DefaultValue)
				if err != nil {
					return nil, fmt.Errorf("@%s(%s): %w", d.Name, a.Name, err)
				}
				ad.Args[a.Name] = v
			}
		}
		for _, a := range d.Arguments {
			v, err := constValue(a.Value)
			if err != nil {
				return nil, fmt.Errorf("@%s(%s): %w", d.Name, a.Name, err)
			}
			ad.Args[a.Name] = v
		}
		out = append(out, ad)
	}
	return out, nil
}

// constValue evaluates a constant SDL value, keeping enum literals distinct
// from strings so they render back unquoted.
func constValue(v *ast.Value) (any, error) {
	if v.Kind == ast.EnumValue {
		return EnumLiteral(v.Raw), nil
	}
	return v.Value(nil)
}

func deprecation(dirs ast.DirectiveList) (bool, string) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return true, reason
}

func typeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(typeRefFromAST(t.Elem))
}
