package cypher

import "slices"

// SchemaConfig controls schema augmentation. The zero value generates query
// and mutation fields for every node type.
type SchemaConfig struct {
	Query    CRUDConfig
	Mutation CRUDConfig
}

// CRUDConfig switches one kind of generated root field.
type CRUDConfig struct {
	Disabled bool
	// Exclude lists node type names that get no generated fields.
	Exclude []string
}

func (c CRUDConfig) enabledFor(typeName string) bool {
	return !c.Disabled && !slices.Contains(c.Exclude, typeName)
}
