package config

import (
	"os"
	"testing"
	"time"

	"blackjack-server/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstance(t *testing.T) {
	clear1 := util.SetEnv("BJS_CONFIG_FILE", "testdata/config.yaml")
	defer clear1()
	clear2 := util.SetEnv("BJS_JWT_PRIVATE_KEY", "private2.key")
	defer clear2()

	config = Config{}

	a := assert.New(t)
	cfg := Instance()
	a.Equal("redis:6379", cfg.RedisAddr)
	a.Equal(StoreRedis, cfg.LogStore)
	a.Equal(StoreMemory, cfg.Ledger, "unset keys keep their default")
	a.Equal("public.pem", cfg.JWT.PublicKey)
	a.Equal("private2.key", cfg.JWT.PrivateKey)
	a.Equal("debug", cfg.Log.Level)
	a.Equal(5, cfg.Table.SeatCap)
	a.Equal(8, cfg.Table.Decks)
	a.Equal(78, cfg.Table.CutCard)
	a.False(cfg.Table.StandsOnSoft17)
	a.Equal(45*time.Second, cfg.Table.TurnTimeout)
	a.Equal(2000, cfg.Table.StartingChips)

	// ensure that it's only loaded once
	_ = os.Setenv("BJS_JWT_PRIVATE_KEY", "private3.key")
	// ensure we aren't using a pointer
	cfg.JWT.PrivateKey = "bad"
	cfg = Instance()
	a.Equal("private3.key", os.Getenv("BJS_JWT_PRIVATE_KEY"))
	a.Equal("private2.key", cfg.JWT.PrivateKey)
}

func TestLoad_missingFile(t *testing.T) {
	defer util.SetEnv("BJS_CONFIG_FILE", "testdata/missing.yaml")()
	defer util.SetEnv("BJS_TABLE_SEAT_CAP", "3")()

	require.NoError(t, Load())
	cfg := Instance()

	def := Default()
	assert.Equal(t, def.PGDSN, cfg.PGDSN)
	assert.Equal(t, 3, cfg.Table.SeatCap)
	assert.True(t, cfg.Table.StandsOnSoft17)
}

func TestTable_Options(t *testing.T) {
	table := Default().Table
	table.SeatCap = 4
	table.StandsOnSoft17 = false

	opts := table.Options()
	assert.Equal(t, 4, opts.SeatCap)
	assert.Equal(t, 6, opts.Decks)
	assert.False(t, opts.StandsOnSoft17)
	assert.Equal(t, 300, opts.MaxChatLength)
}
