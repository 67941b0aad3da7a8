package graphdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockDriver_CountsSessionsAndStatements(t *testing.T) {
	ctx := context.Background()
	d := NewRecordsDriver(MapRecord{"n": 1}, MapRecord{"n": 2})

	s := d.NewSession(ctx)
	out, err := s.ExecuteWrite(ctx, func(tx Tx) (any, error) {
		return tx.Run(ctx, "RETURN 1 AS n", map[string]any{"a": 1})
	})
	require.NoError(t, err)
	require.Len(t, out.([]Record), 2)
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	require.Equal(t, 1, d.Opened())
	require.Equal(t, 1, d.Closed())
	require.Equal(t, []Statement{{Query: "RETURN 1 AS n", Params: map[string]any{"a": 1}}}, d.Statements())
}

func TestMockDriver_PropagatesRunError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	d := NewMockDriver(func(context.Context, string, map[string]any) ([]Record, error) { return nil, boom })

	s := d.NewSession(ctx)
	defer s.Close(ctx)
	_, err := s.ExecuteWrite(ctx, func(tx Tx) (any, error) {
		return tx.Run(ctx, "RETURN 1", nil)
	})
	require.ErrorIs(t, err, boom)
}

func TestMapRecord_Get(t *testing.T) {
	r := MapRecord{"a": nil}
	v, ok := r.Get("a")
	require.True(t, ok)
	require.Nil(t, v)
	_, ok = r.Get("b")
	require.False(t, ok)
}
