// Package events defines the payloads published on the event bus. Start and
// finish events of one unit of work share an ID or, for HTTP and GraphQL,
// the request ID carried by the context.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is published when the GraphQL handler receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published after the response is written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published before an operation is parsed and executed.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is published with the operation's errors, if any.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// FieldFetchStart is published before an async field goes to the runtime.
type FieldFetchStart struct {
	ID         uint64
	ObjectType string
	Field      string
	Path       string
}

// FieldFetchFinish is published once the runtime produced the field's value.
type FieldFetchFinish struct {
	ID         uint64
	ObjectType string
	Field      string
	Path       string
	Err        error
	Duration   time.Duration
}

// CypherStart is published before a translated statement runs in a write
// transaction.
type CypherStart struct {
	ID         uint64
	ObjectType string
	Field      string
	Query      string
	Params     map[string]any
}

// CypherFinish is published after the transaction committed or failed.
type CypherFinish struct {
	ID         uint64
	ObjectType string
	Field      string
	Query      string
	Records    int
	Err        error
	Duration   time.Duration
}
