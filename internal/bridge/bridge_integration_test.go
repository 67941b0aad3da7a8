//go:build integration

package bridge_test

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	bridge "github.com/hanpama/neograph/internal/bridge"
	executor "github.com/hanpama/neograph/internal/executor"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
	resource "github.com/hanpama/neograph/internal/resource"
)

const password = "neograph-test"

const moviesSDL = `
type Person {
  id: ID!
  name: String
  actedIn: [Movie] @relation(name: "ACTED_IN")
}

type Movie {
  id: ID!
  title: String
}
`

func TestBridge_AgainstNeo4j(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5",
			ExposedPorts: []string{"7687/tcp"},
			Env:          map[string]string{"NEO4J_AUTH": "neo4j/" + password},
			WaitingFor:   wait.ForLog("Started.").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)

	db, err := graphdb.Open(ctx, graphdb.Config{
		URI:      fmt.Sprintf("neo4j://%s:%s", host, port.Port()),
		Username: "neo4j",
		Password: password,
	})
	require.NoError(t, err)
	defer db.Close(ctx)

	loader := resource.NewLoader(fstest.MapFS{"graphql/schema.graphqls": {Data: []byte(moviesSDL)}})
	b, err := bridge.NewBuilder(db, bridge.Properties{}, loader, nil)
	require.NoError(t, err)
	exec := b.Build()

	res := exec.Execute(ctx, executor.Request{Query: `mutation {
		a: createPerson(id: "p1", name: "Keanu") { id }
		b: createMovie(id: "m1", title: "The Matrix") { id }
	}`})
	require.Empty(t, res.Errors)

	// relationships are not generated; create one directly
	s := db.NewSession(ctx)
	_, err = s.ExecuteWrite(ctx, func(tx graphdb.Tx) (any, error) {
		return tx.Run(ctx, "MATCH (p:Person {id: 'p1'}), (m:Movie {id: 'm1'}) CREATE (p)-[:ACTED_IN]->(m)", nil)
	})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	res = exec.Execute(ctx, executor.Request{Query: `{ person(name: "Keanu") { name actedIn { title } } }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"person": []any{map[string]any{
		"name":    "Keanu",
		"actedIn": []any{map[string]any{"title": "The Matrix"}},
	}}}, res.Data)

	res = exec.Execute(ctx, executor.Request{Query: `mutation { deletePerson(id: "p1") { name } }`})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"deletePerson": map[string]any{"name": "Keanu"}}, res.Data)
}
