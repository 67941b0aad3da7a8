package schema

import "strings"

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

var builtinDirectives = map[string]bool{
	"include":     true,
	"skip":        true,
	"deprecated":  true,
	"specifiedBy": true,
	"oneOf":       true,
	"defer":       true,
}

// IsBuiltinType reports whether name is a built-in scalar or an
// introspection type.
func IsBuiltinType(name string) bool {
	return builtinScalars[name] || strings.HasPrefix(name, "__")
}

// IsBuiltinDirective reports whether name is defined by the GraphQL prelude.
func IsBuiltinDirective(name string) bool { return builtinDirectives[name] }
