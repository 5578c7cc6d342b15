package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetTurnsUnknownUserIsEmpty(t *testing.T) {
	store := NewMemoryStore(20)

	turns, err := store.GetTurns(context.Background(), "nadie")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestAppendTurnPreservesArrivalOrder(t *testing.T) {
	store := NewMemoryStore(20)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.AppendTurn(ctx, "u1", Turn{
			Message:  fmt.Sprintf("mensaje %d", i),
			Endpoint: EndpointTriage,
		})
		require.NoError(t, err)
	}

	turns, err := store.GetTurns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	require.Equal(t, "mensaje 0", turns[0].Message)
	require.Equal(t, "mensaje 2", turns[2].Message)
}

func TestAppendTurnEvictsOldestBeyondBound(t *testing.T) {
	store := NewMemoryStore(20)
	ctx := context.Background()

	for i := 0; i < 21; i++ {
		require.NoError(t, store.AppendTurn(ctx, "u1", Turn{
			Message:  fmt.Sprintf("mensaje %d", i),
			Endpoint: EndpointDoctors,
		}))
	}

	turns, err := store.GetTurns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	require.Equal(t, "mensaje 1", turns[0].Message, "the oldest turn must be evicted")
	require.Equal(t, "mensaje 20", turns[19].Message)
}

func TestUsersAreIsolated(t *testing.T) {
	store := NewMemoryStore(20)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "u1", Turn{Message: "hola"}))

	turns, err := store.GetTurns(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestTriageContextRoundTrip(t *testing.T) {
	store := NewMemoryStore(20)
	ctx := context.Background()

	got, err := store.GetTriageContext(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, got)

	saved := map[string]any{"capa": float64(2), "sintomas": []any{"fiebre"}}
	require.NoError(t, store.SaveTriageContext(ctx, "u1", saved))

	got, err = store.GetTriageContext(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, saved, got)

	// A second save replaces, not merges.
	require.NoError(t, store.SaveTriageContext(ctx, "u1", map[string]any{"capa": float64(3)}))
	got, err = store.GetTriageContext(ctx, "u1")
	require.NoError(t, err)
	require.NotContains(t, got, "sintomas")
}

func TestGetTurnsReturnsCopy(t *testing.T) {
	store := NewMemoryStore(20)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "u1", Turn{Message: "original"}))

	turns, err := store.GetTurns(ctx, "u1")
	require.NoError(t, err)
	turns[0].Message = "mutado"

	again, err := store.GetTurns(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "original", again[0].Message)
}
