package reference

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehopa/internal/sheets"
)

type fakeFetcher struct {
	mu     sync.Mutex
	tables map[string]string
	fail   map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, sheet string) (sheets.Table, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sheet)
	f.mu.Unlock()
	if err := f.fail[sheet]; err != nil {
		return sheets.Table{}, err
	}
	return sheets.ParseTable(f.tables[sheet]), nil
}

type countingRecorder struct{ n int }

func (c *countingRecorder) IncReferenceLoadFailure() { c.n++ }

var names = Sheets{Providers: "Lista de Provedores", Origins: "Pontos de Pescado", Species: "Espécies"}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads all three sheets", func(t *testing.T) {
		f := &fakeFetcher{tables: map[string]string{
			names.Providers: "Nome,Apelido,Praia\nPedro,Sitoe,Inhaca\n",
			names.Origins:   "Praia\nInhaca\nMacaneta\n",
			names.Species:   "Espécies,Preço\nPargo,150\n",
		}}

		set, err := NewLoader(f, names).Load(context.Background())

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{names.Providers, names.Origins, names.Species}, f.calls)
		_, ok := set.Provider("Pedro Sitoe")
		assert.True(t, ok)
		assert.Equal(t, 2, set.Origins.Len())
		sp, ok := set.SpeciesNamed("Pargo")
		require.True(t, ok)
		assert.Equal(t, "150", sp.UnitPrice.String())
	})

	t.Run("any failure is a single connectivity error", func(t *testing.T) {
		rec := &countingRecorder{}
		f := &fakeFetcher{
			tables: map[string]string{},
			fail:   map[string]error{names.Species: &sheets.FeedError{Sheet: names.Species, StatusCode: 500}},
		}

		set, err := NewLoader(f, names, WithMetrics(rec)).Load(context.Background())

		assert.Nil(t, set)
		assert.True(t, errors.Is(err, ErrReferenceUnavailable))
		var feedErr *sheets.FeedError
		assert.True(t, errors.As(err, &feedErr))
		assert.Equal(t, 1, rec.n)
	})

	t.Run("missing columns load as empty lists", func(t *testing.T) {
		f := &fakeFetcher{tables: map[string]string{
			names.Providers: "Telefone\n84123456\n",
			names.Origins:   "Local\nInhaca\n",
			names.Species:   "Nome\nPargo\n",
		}}

		set, err := NewLoader(f, names).Load(context.Background())

		require.NoError(t, err)
		assert.Empty(t, set.Providers)
		assert.Zero(t, set.Origins.Len())
		assert.Empty(t, set.Species)
	})
}
