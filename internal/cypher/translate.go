package cypher

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	executor "github.com/hanpama/neograph/internal/executor"
	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

// Translator renders root fields as single Cypher statements. It implements
// Delegate and holds no per-request state.
type Translator struct {
	schema *schema.Schema
}

var _ Delegate = (*Translator)(nil)

func NewTranslator(s *schema.Schema) *Translator {
	return &Translator{schema: s}
}

func (t *Translator) Get(env *Environment) (Cypher, error) { return t.Translate(env) }

// Translate renders the root field in env. Query fields become a MATCH over
// the field's node type, mutation fields named create<T>, update<T>,
// merge<T> or delete<T> become the corresponding write. The result variable
// is the field name.
func (t *Translator) Translate(env *Environment) (Cypher, error) {
	info := env.Info
	if info == nil || info.FieldDefinition == nil || len(info.Fields) == 0 {
		return Cypher{}, fmt.Errorf("translate %s.%s: no resolve info", env.ObjectType, env.Field)
	}
	st := &statement{
		schema: t.schema,
		info:   info,
		params: map[string]any{},
		owners: map[string]string{},
	}
	v := env.Field
	var (
		query string
		err   error
	)
	if env.ObjectType == t.schema.MutationType {
		query, err = st.mutation(v, info.FieldDefinition, env.Args)
	} else {
		query, err = st.match(v, info.FieldDefinition, env.Args)
	}
	if err != nil {
		return Cypher{}, fmt.Errorf("translate %s.%s: %w", env.ObjectType, env.Field, err)
	}
	return Cypher{Query: query, Params: st.params, Variable: v}, nil
}

type statement struct {
	schema *schema.Schema
	info   *executor.ResolveInfo
	params map[string]any
	// owners maps each parameter name to the variable and argument it binds.
	owners map[string]string
}

// param binds value to a parameter named after v and name. A name already
// bound for a different argument gets a numeric suffix.
func (s *statement) param(v, name string, value any) string {
	owner := v + "\x00" + name
	base := paramName(v, name)
	p := base
	for i := 2; ; i++ {
		if o, ok := s.owners[p]; !ok || o == owner {
			break
		}
		p = fmt.Sprintf("%s_%d", base, i)
	}
	s.owners[p] = owner
	s.params[p] = normalizeParam(value)
	return "$" + p
}

func (s *statement) selection() language.SelectionSet {
	return executor.CollectedField{Fields: s.info.Fields}.SelectionSet()
}

func (s *statement) nodeType(f *schema.Field) (*schema.Type, error) {
	t := s.schema.Types[f.Type.GetNamedType()]
	if t == nil || t.Kind.IsLeaf() || t.Kind == schema.TypeKindInputObject {
		return nil, fmt.Errorf("field %s returns %s, which is not a node type", f.Name, f.Type)
	}
	return t, nil
}

func (s *statement) isLeaf(f *schema.Field) bool {
	t := s.schema.Types[f.Type.GetNamedType()]
	return t != nil && t.Kind.IsLeaf()
}

// labels returns the label suffix for a node pattern on v, or for unions a
// predicate over the member labels.
func labels(v string, t *schema.Type) (label, predicate string) {
	if t.Kind == schema.TypeKindUnion {
		names := members(t)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = variable(v) + ":" + quoteIdent(name)
		}
		return "", "(" + strings.Join(parts, " OR ") + ")"
	}
	return ":" + quoteIdent(t.Name), ""
}

// members returns the possible types of an abstract type sorted by name.
func members(t *schema.Type) []string {
	return slices.Sorted(slices.Values(t.PossibleTypes))
}

func reserved(arg string) bool {
	return arg == argFirst || arg == argOffset || arg == argOrderBy
}

func (s *statement) match(v string, fieldDef *schema.Field, args map[string]any) (string, error) {
	target, err := s.nodeType(fieldDef)
	if err != nil {
		return "", err
	}
	label, predicate := labels(v, target)
	var where []string
	if predicate != "" {
		where = append(where, predicate)
	}
	filters, err := s.filters(v, target, args)
	if err != nil {
		return "", err
	}
	where = append(where, filters...)
	order, err := orderBy(v, target, args[argOrderBy])
	if err != nil {
		return "", err
	}
	proj, err := s.projection(v, target, s.selection())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	q := variable(v)
	fmt.Fprintf(&b, "MATCH (%s%s)", q, label)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	var paging string
	if off, ok := args[argOffset]; ok && off != nil {
		paging += " SKIP " + s.param(v, argOffset, off)
	}
	if first, ok := args[argFirst]; ok && first != nil {
		paging += " LIMIT " + s.param(v, argFirst, first)
	}
	if order != "" || paging != "" {
		fmt.Fprintf(&b, " WITH %s%s%s", q, order, paging)
	}
	fmt.Fprintf(&b, " RETURN %s AS %s", proj, q)
	return b.String(), nil
}

// filters renders one predicate per non-paging argument, matching the
// argument to the property of the same-named field. Null tests IS NULL and
// a list against a scalar field tests membership.
func (s *statement) filters(v string, target *schema.Type, args map[string]any) ([]string, error) {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(args)) {
		if reserved(name) {
			continue
		}
		f := target.Field(name)
		if f == nil || ignored(f) || !s.isLeaf(f) {
			return nil, fmt.Errorf("argument %s does not match a property of %s", name, target.Name)
		}
		prop := variable(v) + "." + quoteIdent(propertyName(f))
		switch val := args[name]; {
		case val == nil:
			out = append(out, prop+" IS NULL")
		case isSlice(val) && !schema.IsList(f.Type):
			out = append(out, prop+" IN "+s.param(v, name, val))
		default:
			out = append(out, prop+" = "+s.param(v, name, val))
		}
	}
	return out, nil
}

func isSlice(v any) bool {
	_, ok := v.([]any)
	return ok
}

// orderBy renders ORDER BY from ordering enum values such as name_desc.
func orderBy(v string, target *schema.Type, value any) (string, error) {
	var items []any
	switch x := value.(type) {
	case nil:
		return "", nil
	case []any:
		items = x
	default:
		items = []any{x}
	}
	var parts []string
	for _, item := range items {
		str, _ := item.(string)
		i := strings.LastIndexByte(str, '_')
		if i <= 0 {
			return "", fmt.Errorf("invalid ordering %q", str)
		}
		dir := strings.ToUpper(str[i+1:])
		if dir != "ASC" && dir != "DESC" {
			return "", fmt.Errorf("invalid ordering %q", str)
		}
		f := target.Field(str[:i])
		if f == nil {
			return "", fmt.Errorf("ordering %q does not match a field of %s", str, target.Name)
		}
		parts = append(parts, fmt.Sprintf("%s.%s %s", variable(v), quoteIdent(propertyName(f)), dir))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// projection renders the map projection of v for sel. Abstract targets
// project the union of the fields selected on each member type plus the node
// labels, which the runtime uses to resolve the concrete type.
func (s *statement) projection(v string, t *schema.Type, sel language.SelectionSet) (string, error) {
	var entries []string
	objects := []*schema.Type{t}
	if t.Kind.IsAbstract() {
		entries = append(entries, labelsKey+": labels("+variable(v)+")")
		objects = objects[:0]
		for _, name := range members(t) {
			if pt := s.schema.Types[name]; pt != nil {
				objects = append(objects, pt)
			}
		}
	}
	seen := map[string]bool{}
	for _, obj := range objects {
		for _, cf := range s.info.CollectFields(obj, sel) {
			key, entry, err := s.entry(v, obj, cf)
			if err != nil {
				return "", err
			}
			if entry == "" || seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, entry)
		}
	}
	return fmt.Sprintf("%s {%s}", variable(v), strings.Join(entries, ", ")), nil
}

func (s *statement) entry(v string, obj *schema.Type, cf executor.CollectedField) (key, entry string, err error) {
	name := cf.Name()
	if strings.HasPrefix(name, "__") {
		return "", "", nil
	}
	f := obj.Field(name)
	if f == nil {
		return "", "", fmt.Errorf("unknown field %s.%s", obj.Name, name)
	}
	if ignored(f) {
		return "", "", nil
	}
	args, err := s.info.ArgumentValues(f, cf.Fields[0])
	if err != nil {
		return "", "", err
	}
	key = projectionKey(name, args)
	if s.isLeaf(f) {
		prop := propertyName(f)
		if key == prop {
			return key, "." + quoteIdent(prop), nil
		}
		return key, fmt.Sprintf("%s: %s.%s", quoteIdent(key), variable(v), quoteIdent(prop)), nil
	}
	rel, ok := relationOf(f)
	if !ok {
		return "", "", fmt.Errorf("field %s.%s needs @%s to be projected", obj.Name, name, directiveRelation)
	}
	expr, err := s.comprehension(v, key, f, rel, args, cf.SelectionSet())
	if err != nil {
		return "", "", err
	}
	return key, quoteIdent(key) + ": " + expr, nil
}

// comprehension renders a relationship field as a pattern comprehension,
// sliced by first/offset and unwrapped with head() for single targets.
func (s *statement) comprehension(v, key string, f *schema.Field, rel relation, args map[string]any, sel language.SelectionSet) (string, error) {
	if args[argOrderBy] != nil {
		return "", fmt.Errorf("field %s: %s is only supported on root fields", f.Name, argOrderBy)
	}
	target, err := s.nodeType(f)
	if err != nil {
		return "", err
	}
	nv := v + "_" + key
	label, predicate := labels(nv, target)
	var where []string
	if predicate != "" {
		where = append(where, predicate)
	}
	filters, err := s.filters(nv, target, args)
	if err != nil {
		return "", err
	}
	where = append(where, filters...)
	proj, err := s.projection(nv, target, sel)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("[" + rel.pattern(variable(v), variable(nv)+label))
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" | " + proj + "]")

	off, hasOff := args[argOffset]
	first, hasFirst := args[argFirst]
	hasOff = hasOff && off != nil
	hasFirst = hasFirst && first != nil
	switch {
	case hasOff && hasFirst:
		o := s.param(nv, argOffset, off)
		fmt.Fprintf(&b, "[%s..%s + %s]", o, o, s.param(nv, argFirst, first))
	case hasFirst:
		fmt.Fprintf(&b, "[..%s]", s.param(nv, argFirst, first))
	case hasOff:
		fmt.Fprintf(&b, "[%s..]", s.param(nv, argOffset, off))
	}
	if !schema.IsList(f.Type) {
		return "head(" + b.String() + ")", nil
	}
	return b.String(), nil
}

var mutationKinds = []string{"create", "update", "merge", "delete"}

func mutationKind(field string) (kind, typeName string) {
	for _, k := range mutationKinds {
		if rest, ok := strings.CutPrefix(field, k); ok && rest != "" {
			return k, rest
		}
	}
	return "", ""
}

func (s *statement) mutation(v string, fieldDef *schema.Field, args map[string]any) (string, error) {
	kind, typeName := mutationKind(fieldDef.Name)
	target := s.schema.Types[typeName]
	if target == nil || target.Kind != schema.TypeKindObject || fieldDef.Type.GetNamedType() != typeName {
		return "", fmt.Errorf("mutation %s is not create, update, merge or delete of a node type", fieldDef.Name)
	}
	proj, err := s.projection(v, target, s.selection())
	if err != nil {
		return "", err
	}
	q := variable(v)
	label := ":" + quoteIdent(target.Name)
	var extra string
	for _, iface := range target.Interfaces {
		extra += ":" + quoteIdent(iface)
	}

	if kind == "create" {
		props, err := properties(target, args, "")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CREATE (%s%s%s %s) WITH %s RETURN %s AS %s",
			q, label, extra, s.param(v, "props", props), q, proj, q), nil
	}

	id := identity(target)
	if id == nil {
		return "", fmt.Errorf("%s has no ID field", target.Name)
	}
	idValue, ok := args[id.Name]
	if !ok || idValue == nil {
		return "", fmt.Errorf("argument %s is required", id.Name)
	}
	match := fmt.Sprintf("(%s%s {%s: %s})", q, label, quoteIdent(propertyName(id)), s.param(v, id.Name, idValue))

	if kind == "delete" {
		return fmt.Sprintf("MATCH %s WITH %s AS toDelete, %s AS %s DETACH DELETE toDelete RETURN %s",
			match, q, proj, q, q), nil
	}

	props, err := properties(target, args, id.Name)
	if err != nil {
		return "", err
	}
	clause := "MATCH"
	if kind == "merge" {
		clause = "MERGE"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", clause, match)
	if len(props) > 0 {
		fmt.Fprintf(&b, " SET %s += %s", q, s.param(v, "props", props))
	}
	if kind == "merge" && extra != "" {
		fmt.Fprintf(&b, " SET %s%s", q, extra)
	}
	fmt.Fprintf(&b, " WITH %s RETURN %s AS %s", q, proj, q)
	return b.String(), nil
}

// properties maps mutation arguments to node properties, skipping the
// argument named skip.
func properties(target *schema.Type, args map[string]any, skip string) (map[string]any, error) {
	props := map[string]any{}
	for name, val := range args {
		if name == skip {
			continue
		}
		f := target.Field(name)
		if f == nil || ignored(f) {
			return nil, fmt.Errorf("argument %s does not match a property of %s", name, target.Name)
		}
		if _, ok := relationOf(f); ok {
			return nil, fmt.Errorf("argument %s names a relationship of %s", name, target.Name)
		}
		props[propertyName(f)] = val
	}
	return props, nil
}

func identity(t *schema.Type) *schema.Field {
	for _, f := range t.Fields {
		if !schema.IsList(f.Type) && f.Type.GetNamedType() == "ID" {
			return f
		}
	}
	return nil
}
