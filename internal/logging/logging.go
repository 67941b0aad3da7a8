// Package logging builds the process logger and turns bus events into log
// records.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	eventbus "github.com/hanpama/neograph/internal/eventbus"
	events "github.com/hanpama/neograph/internal/events"
	reqid "github.com/hanpama/neograph/internal/reqid"
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing to w in "text" or "json" format.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Subscribe logs finished HTTP requests, GraphQL operations and Cypher
// statements from the global bus. Statements log at debug level unless they
// fail.
func Subscribe(logger *slog.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			logger.LogAttrs(ctx, slog.LevelInfo, "http request",
				withRequestID(ctx,
					slog.String("method", e.Request.Method),
					slog.String("path", e.Request.URL.Path),
					slog.Int("status", e.Status),
					slog.Duration("duration", e.Duration),
				)...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			level := slog.LevelInfo
			attrs := []slog.Attr{
				slog.String("operation", e.OperationName),
				slog.String("type", e.OperationType),
				slog.Duration("duration", e.Duration),
			}
			if len(e.Errors) > 0 {
				level = slog.LevelWarn
				attrs = append(attrs, slog.Int("errors", len(e.Errors)), slog.String("first_error", e.Errors[0].Error()))
			}
			logger.LogAttrs(ctx, level, "graphql operation", withRequestID(ctx, attrs...)...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.CypherFinish) {
			level := slog.LevelDebug
			attrs := []slog.Attr{
				slog.String("field", e.ObjectType+"."+e.Field),
				slog.String("query", e.Query),
				slog.Int("records", e.Records),
				slog.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", e.Err.Error()))
			}
			logger.LogAttrs(ctx, level, "cypher statement", withRequestID(ctx, attrs...)...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func withRequestID(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	if id, ok := reqid.FromContext(ctx); ok {
		return append([]slog.Attr{slog.String("request_id", reqid.String(id))}, attrs...)
	}
	return attrs
}
