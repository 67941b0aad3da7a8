// Package executor runs GraphQL operations breadth-first against a Runtime.
//
// # Execution model
//
// Each field in the schema is either synchronous or asynchronous
// (schema.Field.Async). Synchronous fields are projections of their parent
// value and are resolved immediately through Runtime.ResolveSync while the
// selection set is expanded. Asynchronous fields are queued; once a depth has
// been expanded, every queued task is handed to Runtime.BatchResolveAsync in a
// single call, and the results are completed before the next depth starts.
//
// For graph-backed schemas only the root operation fields are asynchronous:
// each one becomes a single Cypher statement whose projection already
// contains the nested selection, so an operation takes one batch.
//
// # Requests
//
// Execute takes the raw request: it parses the query, validates it against the
// schema's gqlparser AST when one is present, coerces variables and runs the
// selected operation. ExecuteRequest skips parsing and validation and is used
// with documents that have already been checked.
//
// # Value completion
//
//   - Non-Null: a null result records an error and nulls the nearest nullable
//     ancestor. Queued tasks under a nulled path are dropped.
//   - List: items complete with index-aware paths.
//   - Leaf: Runtime.SerializeLeafValue produces a JSON-safe value.
//   - Interface and union: Runtime.ResolveType names the concrete type, which
//     must be one of the abstract type's possible types.
//   - Object: the merged sub-selection is collected for the concrete type.
//     Fragment type conditions match the concrete type or any interface or
//     union containing it.
//
// # Instrumentation
//
// An Instrumentation attached through Builder observes each Execute call and
// each async field fetch. Chain composes several; their hooks run in the
// order given.
package executor
