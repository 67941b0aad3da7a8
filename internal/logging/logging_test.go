package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/neograph/internal/eventbus"
	events "github.com/hanpama/neograph/internal/events"
	reqid "github.com/hanpama/neograph/internal/reqid"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "WARN", rec["level"])

	_, err = New("loud", "text", &buf)
	require.ErrorContains(t, err, `unknown log level "loud"`)
	_, err = New("info", "xml", &buf)
	require.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)
	unsubscribe := Subscribe(logger)

	ctx := reqid.WithID(context.Background(), 99)
	eventbus.Publish(ctx, events.CypherFinish{ObjectType: "Query", Field: "person", Query: "MATCH (n) RETURN n", Records: 2})
	eventbus.Publish(ctx, events.CypherFinish{ObjectType: "Query", Field: "person", Err: errors.New("syntax")})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("boom")}})
	eventbus.Publish(ctx, events.HTTPFinish{Request: httptest.NewRequest("POST", "/graphql", nil), Status: 200, Duration: time.Millisecond})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	recs := make([]map[string]any, len(lines))
	for i, l := range lines {
		require.NoError(t, json.Unmarshal([]byte(l), &recs[i]))
		require.Equal(t, "99", recs[i]["request_id"])
	}
	require.Equal(t, "DEBUG", recs[0]["level"])
	require.Equal(t, "Query.person", recs[0]["field"])
	require.Equal(t, float64(2), recs[0]["records"])
	require.Equal(t, "ERROR", recs[1]["level"])
	require.Equal(t, "syntax", recs[1]["error"])
	require.Equal(t, "WARN", recs[2]["level"])
	require.Equal(t, "boom", recs[2]["first_error"])
	require.Equal(t, "http request", recs[3]["msg"])
	require.Equal(t, float64(200), recs[3]["status"])

	unsubscribe()
	buf.Reset()
	eventbus.Publish(ctx, events.CypherFinish{})
	require.Empty(t, buf.String())
}
