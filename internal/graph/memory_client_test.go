package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientServesQueuesInOrder(t *testing.T) {
	client := NewMemoryClient()
	client.PushReadResult(Result{Records: []Record{{"n": 1}}})
	client.PushReadResult(Result{Records: []Record{{"n": 2}}})

	first, err := client.ExecuteRead(context.Background(), "RETURN 1 AS n", nil)
	require.NoError(t, err)
	second, err := client.ExecuteRead(context.Background(), "RETURN 2 AS n", map[string]any{"x": 1})
	require.NoError(t, err)
	empty, err := client.ExecuteRead(context.Background(), "RETURN 3 AS n", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Single()["n"])
	assert.Equal(t, 2, second.Single()["n"])
	assert.Nil(t, empty.Single())

	calls := client.ReadCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, map[string]any{"x": 1}, calls[1].Params)
	assert.Empty(t, client.WriteCalls())
}

func TestMemoryClientResponderTakesPrecedence(t *testing.T) {
	client := NewMemoryClient().WithResponder(func(q ExecutedQuery) (Result, bool, error) {
		if q.Contains("MERGE") {
			return Result{Records: []Record{{"ok": true}}}, true, nil
		}
		return Result{}, false, nil
	})
	client.PushWriteResult(Result{Records: []Record{{"queued": true}}})

	merged, err := client.ExecuteWrite(context.Background(), "MERGE (n:User {id: $id})", nil)
	require.NoError(t, err)
	assert.Equal(t, true, merged.Single()["ok"])

	queued, err := client.ExecuteWrite(context.Background(), "CREATE (n)", nil)
	require.NoError(t, err)
	assert.Equal(t, true, queued.Single()["queued"])

	calls := client.WriteCalls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Write)
}

func TestMemoryClientErrors(t *testing.T) {
	boom := errors.New("boom")
	client := NewMemoryClient().WithError(boom).WithConnectivityError(boom)

	_, err := client.ExecuteRead(context.Background(), "RETURN 1", nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, client.VerifyConnectivity(context.Background()), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMemoryClient().ExecuteWrite(ctx, "RETURN 1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
