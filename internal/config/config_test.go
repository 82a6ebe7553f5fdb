package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 10, cfg.Ledger.HistoryLimit)
	assert.Equal(t, 3, cfg.Ledger.IDAttempts)
	assert.Equal(t, "id-ID", cfg.Voice.LanguageCode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "Asia/Jakarta", cfg.Ledger.Location().String())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_NAME", "ledger_test")
	t.Setenv("LEDGER_HISTORY_LIMIT", "5")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, 5, cfg.Ledger.HistoryLimit)
	assert.Contains(t, cfg.Database.DSN(), "dbname=ledger_test")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		v := newViper()
		v.Set("store.backend", "mongo")

		_, err := Load(v)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("unknown time zone", func(t *testing.T) {
		v := newViper()
		v.Set("ledger.timezone", "Mars/Olympus")

		_, err := Load(v)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.timezone")
	})

	t.Run("zero id attempts", func(t *testing.T) {
		v := newViper()
		v.Set("ledger.id_attempts", 0)

		_, err := Load(v)
		assert.Error(t, err)
	})
}
