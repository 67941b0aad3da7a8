package bridge

import (
	"context"
	"fmt"
	"time"

	cypher "github.com/hanpama/neograph/internal/cypher"
	eventbus "github.com/hanpama/neograph/internal/eventbus"
	events "github.com/hanpama/neograph/internal/events"
	graphdb "github.com/hanpama/neograph/internal/graphdb"
)

// Fetcher returns the data fetcher that runs a field's translated statement.
// Each call opens one session, runs the statement in a write transaction and
// closes the session on every path. The result holds one entry per record,
// in record order: the value of the statement's result variable, or nil when
// the record lacks it. Translation failures return before a session is
// opened.
func Fetcher(driver graphdb.Driver) cypher.DataFetcher {
	return func(ctx context.Context, env *cypher.Environment, delegate cypher.Delegate) (any, error) {
		c, err := delegate.Get(env)
		if err != nil {
			return nil, err
		}

		id := events.NextID()
		eventbus.Publish(ctx, events.CypherStart{
			ID:         id,
			ObjectType: env.ObjectType,
			Field:      env.Field,
			Query:      c.Query,
			Params:     c.Params,
		})
		start := time.Now()
		values, err := runWrite(ctx, driver, c)
		eventbus.Publish(ctx, events.CypherFinish{
			ID:         id,
			ObjectType: env.ObjectType,
			Field:      env.Field,
			Query:      c.Query,
			Records:    len(values),
			Err:        err,
			Duration:   time.Since(start),
		})
		if err != nil {
			return nil, err
		}
		return values, nil
	}
}

// runWrite runs c in a write transaction of a fresh session. A failure to
// close the session is reported when the statement itself succeeded.
func runWrite(ctx context.Context, driver graphdb.Driver, c cypher.Cypher) (values []any, err error) {
	session := driver.NewSession(ctx)
	defer func() {
		if cerr := session.Close(ctx); cerr != nil && err == nil {
			values, err = nil, fmt.Errorf("close session: %w", cerr)
		}
	}()
	out, err := session.ExecuteWrite(ctx, func(tx graphdb.Tx) (any, error) {
		records, err := tx.Run(ctx, c.Query, c.Params)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(records))
		for i, r := range records {
			values[i], _ = r.Get(c.Variable)
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	values, _ = out.([]any)
	return values, nil
}
