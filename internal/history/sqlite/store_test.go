package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehopa/internal/registration/models"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := New(path)
	require.NoError(t, err)

	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	first := models.Record{GeneratedID: "inhaca_001", Origin: "Inhaca", Quantity: "20,00", Timestamp: ts}
	second := models.Record{GeneratedID: "inhaca_002", Origin: "Inhaca", Quantity: "3,50", Timestamp: ts.Add(time.Hour)}

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	records, err := s.Get(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "inhaca_002", records[0].GeneratedID)
	assert.True(t, ts.Equal(records[1].Timestamp))

	t.Run("history survives reopening", func(t *testing.T) {
		require.NoError(t, s.Close())
		s, err = New(path)
		require.NoError(t, err)

		records, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("put replaces and keeps order", func(t *testing.T) {
		replacement := []models.Record{
			{GeneratedID: "macaneta_003"},
			{GeneratedID: "macaneta_002"},
			{GeneratedID: "macaneta_001"},
		}
		require.NoError(t, s.Put(ctx, replacement))

		records, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, replacement, records)

		require.NoError(t, s.Append(ctx, models.Record{GeneratedID: "macaneta_004"}))
		records, _ = s.Get(ctx)
		assert.Equal(t, "macaneta_004", records[0].GeneratedID)
	})

	t.Run("put with nothing empties the history", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, nil))
		records, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	require.NoError(t, s.Close())
}
