package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
)

func testFirings() []engine.Firing {
	return []engine.Firing{
		{Seq: 1, Pass: 1, Interview: "incl", Rule: "computed", Target: "IMC", Changed: true},
		{Seq: 2, Pass: 1, Interview: "incl", Rule: "decimalPrecision", Target: "IMC", Changed: true},
		{Seq: 3, Pass: 1, Interview: "v1", Rule: "required", Target: "POIDS", Error: "boom"},
	}
}

func TestWriteRun_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.WriteRun(ctx, Run{ID: "r1", Participant: "001", RulesHash: "h"}, testFirings())
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)

	got, err := s.ReadRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	firings, err := s.ReadFirings(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, testFirings(), firings)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, Run{ID: "r1", Participant: "001", RulesHash: "h"}, testFirings())
	require.NoError(t, err)
	again, err := s.WriteRun(ctx, Run{ID: "r1", Participant: "999", RulesHash: "other"}, testFirings()[:1])
	require.NoError(t, err)
	assert.Equal(t, first, again)

	firings, err := s.ReadFirings(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, firings, 3)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []Run{
		{ID: "b", Participant: "001", RulesHash: "h"},
		{ID: "a", Participant: "002", RulesHash: "h"},
		{ID: "c", Participant: "001", RulesHash: "h"},
	} {
		_, err := s.WriteRun(ctx, r, nil)
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := s.ListRuns(ctx, "001")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(1), mine[0].Seq)
	assert.Equal(t, int64(3), mine[1].Seq)

	none, err := s.ListRuns(ctx, "404")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReadRun_Missing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ReadRun(ctx, "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	firings, err := s.ReadFirings(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, firings)
	assert.Empty(t, firings)
}
