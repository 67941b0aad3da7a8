package bridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	cypher "github.com/hanpama/neograph/internal/cypher"
	eventbus "github.com/hanpama/neograph/internal/eventbus"
	events "github.com/hanpama/neograph/internal/events"
	executor "github.com/hanpama/neograph/internal/executor"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
	resource "github.com/hanpama/neograph/internal/resource"
)

const personSDL = `
type Person {
  id: ID!
  name: String
}
`

func loaderFor(sdl string) resource.Loader {
	return resource.NewLoader(fstest.MapFS{"graphql/schema.graphqls": {Data: []byte(sdl)}})
}

type failingResource struct{ err error }

func (r failingResource) Open() (io.ReadCloser, error) { return nil, r.err }
func (failingResource) Description() string          { return "broken resource" }

type failingLoader struct{ err error }

func (l failingLoader) Resource(string) resource.Resource { return failingResource{err: l.err} }

type bytesResource []byte

func (r bytesResource) Open() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(string(r))), nil }
func (bytesResource) Description() string          { return "bytes" }

type bytesLoader []byte

func (l bytesLoader) Resource(string) resource.Resource { return bytesResource(l) }

func execute(t *testing.T, b *executor.Builder, query string) *executor.ExecutionResult {
	t.Helper()
	return b.Build().Execute(context.Background(), executor.Request{Query: query})
}

func TestNewBuilder_ValidSchema(t *testing.T) {
	driver := graphdb.NewRecordsDriver(graphdb.MapRecord{"person": map[string]any{"id": "42", "name": "Ada"}})

	b, err := NewBuilder(driver, Properties{}, loaderFor(personSDL), nil)
	require.NoError(t, err)
	require.NotNil(t, b)

	res := execute(t, b, `{ person(id: "42") { name } }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"person": []any{map[string]any{"name": "Ada"}}}, res.Data)

	stmts := driver.Statements()
	require.Len(t, stmts, 1)
	require.Equal(t, "MATCH (person:Person) WHERE person.id = $personId RETURN person {.name} AS person", stmts[0].Query)
	require.Equal(t, map[string]any{"personId": "42"}, stmts[0].Params)
	require.Equal(t, 1, driver.Opened())
	require.Equal(t, 1, driver.Closed())
}

func TestNewBuilder_MissingSchema(t *testing.T) {
	b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{SchemaLocation: "classpath:nope.graphqls"}, loaderFor(personSDL), nil)
	require.Nil(t, b)

	var missing *MissingSchemaError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "classpath:nope.graphqls", missing.Location)
	require.Equal(t, "class path resource [nope.graphqls]", missing.Resource)
	require.ErrorIs(t, err, resource.ErrNotFound)
}

func TestNewBuilder_UnreadableSchema(t *testing.T) {
	ioErr := errors.New("disk on fire")
	b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, failingLoader{err: ioErr}, nil)
	require.Nil(t, b)

	var missing *MissingSchemaError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, DefaultSchemaLocation, missing.Location)
	require.Equal(t, "broken resource", missing.Resource)
	require.ErrorIs(t, err, ioErr)

	b, err = NewBuilder(graphdb.NewMockDriver(nil), Properties{}, bytesLoader{0xff, 0xfe}, nil)
	require.Nil(t, b)
	require.ErrorAs(t, err, &missing)
	require.ErrorIs(t, err, errInvalidUTF8)
}

func TestNewBuilder_InvalidSchema(t *testing.T) {
	b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(`type Person {`), nil)
	require.Nil(t, b)
	require.ErrorContains(t, err, "build schema")

	var missing *MissingSchemaError
	require.False(t, errors.As(err, &missing))
}

type recorder struct {
	executor.SimpleInstrumentation
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (r recorder) BeginExecution(ctx context.Context, _ executor.ExecutionParams) (context.Context, func(*executor.ExecutionResult)) {
	r.mu.Lock()
	*r.log = append(*r.log, r.name+":begin")
	r.mu.Unlock()
	return ctx, func(*executor.ExecutionResult) {
		r.mu.Lock()
		*r.log = append(*r.log, r.name+":end")
		r.mu.Unlock()
	}
}

func TestNewBuilder_Instrumentation(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(personSDL), []executor.Instrumentation{})
		require.NoError(t, err)
		require.Nil(t, b.Instrumentation())
	})

	t.Run("chained in order", func(t *testing.T) {
		var mu sync.Mutex
		var log []string
		first := recorder{name: "first", mu: &mu, log: &log}
		second := recorder{name: "second", mu: &mu, log: &log}

		b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(personSDL), []executor.Instrumentation{first, second})
		require.NoError(t, err)
		chain, ok := b.Instrumentation().(*executor.Chain)
		require.True(t, ok)
		require.Equal(t, []executor.Instrumentation{first, second}, chain.Instrumentations())

		execute(t, b, `{ person { id } }`)
		require.Equal(t, []string{"first:begin", "second:begin", "first:end", "second:end"}, log)
	})
}

func TestNewBuilder_Introspection(t *testing.T) {
	b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(personSDL), nil)
	require.NoError(t, err)
	res := execute(t, b, `{ __type(name: "Person") { name } }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"__type": map[string]any{"name": "Person"}}, res.Data)

	b, err = NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(personSDL), nil, WithIntrospection(false))
	require.NoError(t, err)
	res = execute(t, b, `{ __type(name: "Person") { name } }`)
	require.NotEmpty(t, res.Errors)
}

func TestNewBuilder_Options(t *testing.T) {
	b, err := NewBuilder(graphdb.NewMockDriver(nil), Properties{}, loaderFor(personSDL), nil,
		WithSchemaConfig(cypher.SchemaConfig{Mutation: cypher.CRUDConfig{Disabled: true}}),
		WithWiring(func(w *cypher.Wiring) {
			w.Fetcher("Query", "person", func(context.Context, *cypher.Environment, cypher.Delegate) (any, error) {
				return []any{map[string]any{"id": "7"}}, nil
			})
		}),
	)
	require.NoError(t, err)
	require.Nil(t, b.Schema().GetMutationType())

	res := execute(t, b, `{ person { id } }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"person": []any{map[string]any{"id": "7"}}}, res.Data)
}

func TestNewBuilder_QueryFailureIsLocated(t *testing.T) {
	driver := graphdb.NewMockDriver(func(context.Context, string, map[string]any) ([]graphdb.Record, error) {
		return nil, errors.New("Neo.ClientError.Statement.SyntaxError")
	})
	b, err := NewBuilder(driver, Properties{}, loaderFor(personSDL), nil)
	require.NoError(t, err)

	res := execute(t, b, `{ person { id } }`)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "Neo.ClientError.Statement.SyntaxError", res.Errors[0].Message)
	require.NotEmpty(t, res.Errors[0].Locations)
	require.Equal(t, executor.Path{"person"}, res.Errors[0].Path)
	require.Nil(t, res.Data)
	require.Equal(t, 1, driver.Opened())
	require.Equal(t, 1, driver.Closed())
}

type stubDelegate struct {
	c   cypher.Cypher
	err error
}

func (d stubDelegate) Get(*cypher.Environment) (cypher.Cypher, error) { return d.c, d.err }

func TestFetcher_OneEntryPerRecord(t *testing.T) {
	driver := graphdb.NewRecordsDriver(
		graphdb.MapRecord{"p": "first"},
		graphdb.MapRecord{"other": 1},
		graphdb.MapRecord{"p": "third"},
	)
	fetch := Fetcher(driver)

	out, err := fetch(context.Background(), &cypher.Environment{ObjectType: "Query", Field: "people"},
		stubDelegate{c: cypher.Cypher{Query: "MATCH (p) RETURN p", Params: map[string]any{"x": 1}, Variable: "p"}})
	require.NoError(t, err)
	require.Equal(t, []any{"first", nil, "third"}, out)
	require.Equal(t, []graphdb.Statement{{Query: "MATCH (p) RETURN p", Params: map[string]any{"x": 1}}}, driver.Statements())
	require.Equal(t, 1, driver.Opened())
	require.Equal(t, 1, driver.Closed())
}

func TestFetcher_NoRecords(t *testing.T) {
	out, err := Fetcher(graphdb.NewMockDriver(nil))(context.Background(), &cypher.Environment{},
		stubDelegate{c: cypher.Cypher{Query: "MATCH (n) RETURN n", Variable: "n"}})
	require.NoError(t, err)
	require.Equal(t, []any{}, out)
}

func TestFetcher_TranslationErrorOpensNoSession(t *testing.T) {
	driver := graphdb.NewMockDriver(nil)
	boom := errors.New("cannot translate")

	_, err := Fetcher(driver)(context.Background(), &cypher.Environment{}, stubDelegate{err: boom})
	require.ErrorIs(t, err, boom)
	require.Zero(t, driver.Opened())
}

func TestFetcher_SessionClosedOnError(t *testing.T) {
	boom := errors.New("boom")
	driver := graphdb.NewMockDriver(func(context.Context, string, map[string]any) ([]graphdb.Record, error) { return nil, boom })

	_, err := Fetcher(driver)(context.Background(), &cypher.Environment{}, stubDelegate{c: cypher.Cypher{Query: "X", Variable: "x"}})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, driver.Opened())
	require.Equal(t, 1, driver.Closed())
}

func TestFetcher_CloseErrorReported(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })
	var finishes []events.CypherFinish
	eventbus.Subscribe(func(_ context.Context, e events.CypherFinish) { finishes = append(finishes, e) })

	closeErr := errors.New("connection reset")
	driver := graphdb.NewRecordsDriver(graphdb.MapRecord{"n": 1})
	driver.FailClose(closeErr)

	out, err := Fetcher(driver)(context.Background(), &cypher.Environment{ObjectType: "Query", Field: "n"},
		stubDelegate{c: cypher.Cypher{Query: "RETURN 1 AS n", Variable: "n"}})
	require.ErrorIs(t, err, closeErr)
	require.Nil(t, out)
	require.Equal(t, 1, driver.Closed())
	require.Len(t, finishes, 1)
	require.ErrorIs(t, finishes[0].Err, closeErr)
}

func TestFetcher_CloseErrorDoesNotMaskQueryError(t *testing.T) {
	boom := errors.New("boom")
	driver := graphdb.NewMockDriver(func(context.Context, string, map[string]any) ([]graphdb.Record, error) { return nil, boom })
	driver.FailClose(errors.New("connection reset"))

	_, err := Fetcher(driver)(context.Background(), &cypher.Environment{}, stubDelegate{c: cypher.Cypher{Query: "X", Variable: "x"}})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, driver.Closed())
}

func TestFetcher_PublishesEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var starts []events.CypherStart
	var finishes []events.CypherFinish
	eventbus.Subscribe(func(_ context.Context, e events.CypherStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(_ context.Context, e events.CypherFinish) { finishes = append(finishes, e) })

	driver := graphdb.NewRecordsDriver(graphdb.MapRecord{"n": 1}, graphdb.MapRecord{"n": 2})
	_, err := Fetcher(driver)(context.Background(), &cypher.Environment{ObjectType: "Query", Field: "n"},
		stubDelegate{c: cypher.Cypher{Query: "UNWIND [1, 2] AS n RETURN n", Variable: "n"}})
	require.NoError(t, err)

	require.Len(t, starts, 1)
	require.Len(t, finishes, 1)
	require.Equal(t, starts[0].ID, finishes[0].ID)
	require.Equal(t, "UNWIND [1, 2] AS n RETURN n", starts[0].Query)
	require.Equal(t, 2, finishes[0].Records)
	require.NoError(t, finishes[0].Err)
}
