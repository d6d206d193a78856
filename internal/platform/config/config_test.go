package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults follow the field app", func(t *testing.T) {
		t.Setenv("EHOPA_SHEET_ID", "sheet-123")
		t.Setenv("EHOPA_SHEET_WRITE_URL", "https://sheetdb.example/api/v1/abc")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "Espécies", cfg.Sheets.SpeciesSheet)
		assert.Equal(t, "GERAL", cfg.Sheets.LedgerSheet)
		assert.Equal(t, 15*time.Second, cfg.Registration.LocationTimeout)
		assert.Equal(t, "enforced", cfg.Registration.PricePolicy)
		assert.Equal(t, []string{"whatsapp"}, cfg.Notify.Channels)
	})

	t.Run("missing sheet id is rejected", func(t *testing.T) {
		t.Setenv("EHOPA_SHEET_ID", "")
		t.Setenv("EHOPA_SHEET_WRITE_URL", "https://sheetdb.example/api/v1/abc")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "EHOPA_SHEET_ID")
	})

	t.Run("kafka channel needs brokers", func(t *testing.T) {
		t.Setenv("EHOPA_SHEET_ID", "sheet-123")
		t.Setenv("EHOPA_SHEET_WRITE_URL", "https://sheetdb.example/api/v1/abc")
		t.Setenv("EHOPA_NOTIFY", "whatsapp, kafka")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "EHOPA_KAFKA_BROKERS")
	})

	t.Run("unknown price policy is rejected", func(t *testing.T) {
		t.Setenv("EHOPA_SHEET_ID", "sheet-123")
		t.Setenv("EHOPA_SHEET_WRITE_URL", "https://sheetdb.example/api/v1/abc")
		t.Setenv("EHOPA_PRICE_POLICY", "free")

		_, err := FromEnv()
		assert.ErrorContains(t, err, "price policy")
	})
}
