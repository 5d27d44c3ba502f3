package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemsim-server/internal/util"
)

func TestLoad(t *testing.T) {
	clear1 := util.SetEnv("HOLDEM_CONFIG_FILE", "testdata/config.yaml")
	defer clear1()
	clear2 := util.SetEnv("HOLDEM_JWT_PRIVATE_KEY", "private2.key")
	defer clear2()

	a := assert.New(t)
	cfg, err := Load()
	require.NoError(t, err)

	a.Equal("postgres://localhost:5432/holdemsim?sslmode=disable", cfg.PGDSN)
	a.Equal("public.pem", cfg.JWT.PublicKey)
	a.Equal("private2.key", cfg.JWT.PrivateKey)
	a.Equal("debug", cfg.Log.Level)
	a.Equal(45, cfg.TurnTimeoutSeconds)
	a.Equal(250, cfg.Simulator.ProcessIntervalMs)
	a.Equal(10, cfg.Simulator.BatchSize)
}

func TestLoad_Defaults(t *testing.T) {
	clear := util.SetEnv("HOLDEM_CONFIG_FILE", "testdata/minimal.yaml")
	defer clear()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sql", cfg.MigrationsPath)
	assert.Equal(t, 30, cfg.TurnTimeoutSeconds)
	assert.Equal(t, 500, cfg.Simulator.ProcessIntervalMs)
	assert.Equal(t, 25, cfg.Simulator.BatchSize)
}

func TestLoad_MissingFile(t *testing.T) {
	clear := util.SetEnv("HOLDEM_CONFIG_FILE", "testdata/nope.yaml")
	defer clear()

	_, err := Load()
	assert.Error(t, err)
}
