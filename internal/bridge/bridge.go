// Package bridge assembles the GraphQL engine for a graph database: it loads
// the schema document, builds a schema whose root fields run translated
// Cypher through the database driver, and attaches the instrumentation chain.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	cypher "github.com/hanpama/neograph/internal/cypher"
	executor "github.com/hanpama/neograph/internal/executor"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
	introspection "github.com/hanpama/neograph/internal/introspection"
	resource "github.com/hanpama/neograph/internal/resource"
)

// DefaultSchemaLocation is used when Properties.SchemaLocation is empty.
const DefaultSchemaLocation = "classpath:graphql/schema.graphqls"

// Properties are the settings NewBuilder reads.
type Properties struct {
	// SchemaLocation is resolved through the resource loader.
	SchemaLocation string
}

// MissingSchemaError reports a schema resource that could not be resolved,
// opened or read.
type MissingSchemaError struct {
	Location string
	Resource string
	Err      error
}

func (e *MissingSchemaError) Error() string {
	return fmt.Sprintf("no GraphQL schema could be loaded from %s (%s): %v", e.Location, e.Resource, e.Err)
}

func (e *MissingSchemaError) Unwrap() error { return e.Err }

var errInvalidUTF8 = errors.New("schema is not valid UTF-8")

type options struct {
	introspection bool
	schemaConfig  cypher.SchemaConfig
	wiring        []func(*cypher.Wiring)
}

// Option configures NewBuilder.
type Option func(*options)

// WithIntrospection enables or disables the __schema and __type fields.
// Enabled by default.
func WithIntrospection(enabled bool) Option {
	return func(o *options) { o.introspection = enabled }
}

// WithSchemaConfig sets the augmentation config. The zero value generates
// query and mutation fields for every node type.
func WithSchemaConfig(cfg cypher.SchemaConfig) Option {
	return func(o *options) { o.schemaConfig = cfg }
}

// WithWiring adds runtime customizers. They run in the order given, after
// customizers from earlier options.
func WithWiring(customizers ...func(*cypher.Wiring)) Option {
	return func(o *options) { o.wiring = append(o.wiring, customizers...) }
}

// NewBuilder loads the schema at props.SchemaLocation and returns an
// executor builder for it. Root fields are translated to Cypher and run
// through driver, one session per field. The instrumentations are chained in
// order; with none, the builder carries no instrumentation.
//
// A schema that cannot be loaded yields a *MissingSchemaError and no builder.
func NewBuilder(driver graphdb.Driver, props Properties, loader resource.Loader, instrumentations []executor.Instrumentation, opts ...Option) (*executor.Builder, error) {
	o := options{introspection: true}
	for _, opt := range opts {
		opt(&o)
	}
	location := props.SchemaLocation
	if location == "" {
		location = DefaultSchemaLocation
	}
	res := loader.Resource(location)
	sdl, err := read(res)
	if err != nil {
		return nil, &MissingSchemaError{Location: location, Resource: res.Description(), Err: err}
	}

	es, err := cypher.BuildSchema(sdl, o.schemaConfig, Fetcher(driver), o.wiring...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	if o.introspection {
		es = introspection.Wrap(es)
	}
	builder := executor.NewBuilder(es)
	if len(instrumentations) > 0 {
		builder.WithInstrumentation(executor.NewChain(instrumentations...))
	}
	return builder, nil
}

func read(res resource.Resource) (string, error) {
	rc, err := res.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}
