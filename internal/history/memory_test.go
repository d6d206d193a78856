package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehopa/internal/registration/models"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	records, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, m.Append(ctx, models.Record{GeneratedID: "inhaca_001"}))
	require.NoError(t, m.Append(ctx, models.Record{GeneratedID: "inhaca_002"}))

	records, err = m.Get(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "inhaca_002", records[0].GeneratedID, "newest first")
	assert.Equal(t, "inhaca_001", records[1].GeneratedID)

	records[0].GeneratedID = "mutated"
	again, _ := m.Get(ctx)
	assert.Equal(t, "inhaca_002", again[0].GeneratedID, "Get returns a copy")

	require.NoError(t, m.Put(ctx, []models.Record{{GeneratedID: "macaneta_001"}}))
	records, _ = m.Get(ctx)
	assert.Equal(t, []models.Record{{GeneratedID: "macaneta_001"}}, records)
}
