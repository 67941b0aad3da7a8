package executor

import (
	language "github.com/hanpama/neograph/internal/language"
	schema "github.com/hanpama/neograph/internal/schema"
)

// CollectedField groups the fields of a selection set that share a response
// name (alias or field name).
type CollectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// Name is the schema field name of the group.
func (c CollectedField) Name() string { return c.Fields[0].Name }

// SelectionSet merges the sub-selections of every field in the group.
func (c CollectedField) SelectionSet() language.SelectionSet { return mergeSelectionSets(c.Fields) }

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []CollectedField
	index  map[string]int
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]CollectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, CollectedField{
			ResponseName: responseName,
			Fields:       []*language.Field{field},
		})
	}
}

func (cfm *collectedFieldMap) orderedFields() []CollectedField {
	return cfm.fields
}

// collectFields collects fields from a selection set
func collectFields(oc *operationContext, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)
	collectFieldsImpl(oc, objectType, selectionSet, groupedFields, visitedFragments)
	return groupedFields
}

func collectFieldsImpl(oc *operationContext, objectType *schema.Type, selectionSet language.SelectionSet, groupedFields *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(oc, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			groupedFields.add(responseName, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(oc, sel.Directives) {
				continue
			}
			if !doesFragmentTypeApply(oc.schema, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsImpl(oc, objectType, sel.SelectionSet, groupedFields, visitedFragments)

		case *language.FragmentSpread:
			if !shouldIncludeNode(oc, sel.Directives) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragmentDef := getFragmentDefinition(oc.document, sel.Name)
			if fragmentDef == nil {
				continue
			}
			if !doesFragmentTypeApply(oc.schema, objectType, fragmentDef.TypeCondition) {
				continue
			}
			if !shouldIncludeNode(oc, fragmentDef.Directives) {
				continue
			}
			collectFieldsImpl(oc, objectType, fragmentDef.SelectionSet, groupedFields, visitedFragments)
		}
	}
}

// doesFragmentTypeApply reports whether a fragment with the given type
// condition applies to objectType. An interface or union condition applies to
// each of its possible types.
func doesFragmentTypeApply(s *schema.Schema, objectType *schema.Type, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	if s == nil {
		return false
	}
	return s.IsPossibleType(typeCondition, objectType.Name)
}

// shouldIncludeNode checks if a node should be included based on directives
func shouldIncludeNode(oc *operationContext, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if skipIf, ok := directiveArgument(oc, skip, "if"); ok {
			if b, ok := skipIf.(bool); ok && b {
				return false
			}
		}
	}
	if include := directives.ForName("include"); include != nil {
		if includeIf, ok := directiveArgument(oc, include, "if"); ok {
			if b, ok := includeIf.(bool); ok && !b {
				return false
			}
		}
	}
	return true
}

func directiveArgument(oc *operationContext, directive *language.Directive, argName string) (any, bool) {
	arg := directive.Arguments.ForName(argName)
	if arg == nil {
		return nil, false
	}
	return valueFromASTWithVars(arg.Value, oc.variables), true
}

// getFragmentDefinition finds a fragment definition by name in the document
func getFragmentDefinition(document *language.QueryDocument, name string) *language.FragmentDefinition {
	if document == nil {
		return nil
	}
	return document.Fragments.ForName(name)
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	return objectType.Field(fieldName)
}

// ResolveInfo describes the position of an async field in the operation being
// executed. Runtimes use it to look ahead into the field's sub-selections.
type ResolveInfo struct {
	Schema          *schema.Schema
	Document        *language.QueryDocument
	Operation       *language.OperationDefinition
	Variables       map[string]any
	ParentType      *schema.Type
	FieldDefinition *schema.Field
	Fields          []*language.Field
	Path            Path
}

func (info *ResolveInfo) operationContext() *operationContext {
	return &operationContext{
		schema:    info.Schema,
		document:  info.Document,
		operation: info.Operation,
		variables: info.Variables,
	}
}

// CollectFields groups selectionSet for objectType the way the executor does,
// applying @skip, @include and fragment type conditions.
func (info *ResolveInfo) CollectFields(objectType *schema.Type, selectionSet language.SelectionSet) []CollectedField {
	return collectFields(info.operationContext(), objectType, selectionSet).orderedFields()
}

// ArgumentValues coerces the arguments of field against fieldDef using the
// operation's variables.
func (info *ResolveInfo) ArgumentValues(fieldDef *schema.Field, field *language.Field) (map[string]any, error) {
	args, errs := coerceArgumentValues(fieldDef, field.Arguments, info.Variables)
	if len(errs) > 0 {
		return args, errs[0]
	}
	return args, nil
}
