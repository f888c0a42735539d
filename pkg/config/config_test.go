package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 30, cfg.Business.SaleReturnWindowDays)
	assert.Equal(t, "0.3", cfg.Business.MaxDiscountPct.String())
	assert.Equal(t, 30*time.Second, cfg.Business.LockTTL())
	assert.Equal(t, "alquiler", cfg.Metrics.Namespace)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("DB_HOST", "db")
	v.Set("DB_PORT", "6543")
	v.Set("DB_PASSWORD", "p@ss:word")
	v.Set("REDIS_ADDR", "redis:6379")
	v.Set("LATE_FEE_PER_DAY", "12.50")
	v.Set("ALLOW_PROMO_STACKING", "true")
	v.Set("TIMEZONE", "UTC")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "postgres://postgres:p%40ss%3Aword@db:6543/alquiler?sslmode=disable", cfg.DB.ConnectionString())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "12.5", cfg.Business.LateFeePerDay.String())
	assert.True(t, cfg.Business.AllowPromoStacking)
	assert.Equal(t, time.UTC, cfg.Business.Location())
}

func TestFromViper_DecimalInvalido(t *testing.T) {
	v := viper.New()
	v.Set("REFERRAL_REWARD", "veinte")
	_, err := fromViper(v)
	assert.ErrorContains(t, err, "REFERRAL_REWARD")
}

func TestFromViper_TopeDeDescuentoFueraDeRango(t *testing.T) {
	v := viper.New()
	v.Set("MAX_DISCOUNT_PCT", "1.5")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestBusinessConfig_ZonaDesconocidaUsaUTC(t *testing.T) {
	assert.Equal(t, time.UTC, BusinessConfig{Timezone: "Marte/Olympus"}.Location())
}

func TestDatabaseURLTienePrioridad(t *testing.T) {
	c := DBConfig{DatabaseURL: "postgres://x", Host: "db"}
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
