package cypher

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/neograph/internal/executor"
)

const moviesSDL = `
interface Named { name: String }

type Person implements Named {
  id: ID!
  name: String
  born: Int
  nick: String @property(name: "nickname")
  secret: String @ignore
  knows(first: Int, offset: Int, name: String): [Person] @relation(name: "KNOWS")
  bestFriend: Person @relation(name: "BEST_FRIEND")
  fans: [Person] @relation(name: "FAN_OF", direction: IN)
  actedIn: [Movie] @relation(name: "ACTED_IN")
}

type Movie implements Named {
  title: String
  name: String
  released: Int
}

union Thing = Person | Movie

type Query {
  things: [Thing]
  named(name: String): [Named]
  people(name: [String]): [Person]
  me: Person
  search(term: String): [Person]
}
`

// recorder is a DataFetcher that translates each root field and records the
// statement instead of running it.
type recorder struct {
	mu     sync.Mutex
	byName map[string]Cypher
	result func(env *Environment) any
}

func newRecorder() *recorder { return &recorder{byName: map[string]Cypher{}} }

func (r *recorder) fetch(_ context.Context, env *Environment, d Delegate) (any, error) {
	c, err := d.Get(env)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.byName[env.Field] = c
	r.mu.Unlock()
	if r.result != nil {
		return r.result(env), nil
	}
	return []any{}, nil
}

func (r *recorder) get(t *testing.T, field string) Cypher {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[field]
	require.True(t, ok, "no statement for %s", field)
	return c
}

func mustBuild(t *testing.T, sdl string, cfg SchemaConfig, fetch DataFetcher, customizers ...func(*Wiring)) *executor.Executor {
	t.Helper()
	es, err := BuildSchema(sdl, cfg, fetch, customizers...)
	require.NoError(t, err)
	return executor.NewBuilder(es).Build()
}

func run(t *testing.T, exec *executor.Executor, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	return exec.Execute(context.Background(), executor.Request{Query: query, Variables: vars})
}
