// Package cypher turns a GraphQL schema describing a property graph into an
// executable schema whose root fields are answered by Cypher statements.
//
// Object types map to node labels. Fields of scalar or enum type map to node
// properties and fields carrying @relation map to relationships. BuildSchema
// augments the schema with query and mutation fields per node type, and the
// Translator renders one statement per root field, projecting the whole
// sub-selection so nested fields resolve from the returned maps without
// further round trips.
package cypher
