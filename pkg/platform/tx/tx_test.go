package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	dErrors "ehopa/pkg/domain-errors"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE items (name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestRun(t *testing.T) {
	t.Run("commits when fn succeeds", func(t *testing.T) {
		db := openDB(t)
		err := Run(context.Background(), db, func(ctx context.Context) error {
			_, inTx := From(ctx)
			assert.True(t, inTx)
			_, err := Conn(ctx, db).ExecContext(ctx, `INSERT INTO items (name) VALUES ('pargo')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count(t, db))
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db := openDB(t)
		boom := errors.New("boom")
		err := Run(context.Background(), db, func(ctx context.Context) error {
			if _, err := Conn(ctx, db).ExecContext(ctx, `INSERT INTO items (name) VALUES ('lula')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, count(t, db))
	})

	t.Run("cancelled context is a timeout", func(t *testing.T) {
		db := openDB(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Run(ctx, db, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestWithTxNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}
