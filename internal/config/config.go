package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"holdemsim-server/internal/util"
)

// Config provides configuration for the hold'em simulator server
type Config struct {
	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`
	JWT            struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	}
	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
	TurnTimeoutSeconds int `yaml:"turnTimeoutSeconds" envconfig:"turn_timeout_seconds"`
	Simulator          struct {
		ProcessIntervalMs int `yaml:"processIntervalMs" envconfig:"process_interval_ms"`
		BatchSize         int `yaml:"batchSize" envconfig:"batch_size"`
	}
}

// Load reads the YAML config file named by HOLDEM_CONFIG_FILE and then
// applies HOLDEM_* environment overrides
func Load() (Config, error) {
	var config Config

	configFile := util.Getenv("HOLDEM_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil {
		return config, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return config, err
	}

	if err := envconfig.Process("holdem", &config); err != nil {
		return config, err
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.MigrationsPath == "" {
		c.MigrationsPath = "sql"
	}

	if c.TurnTimeoutSeconds <= 0 {
		c.TurnTimeoutSeconds = 30
	}

	if c.Simulator.ProcessIntervalMs <= 0 {
		c.Simulator.ProcessIntervalMs = 500
	}

	if c.Simulator.BatchSize <= 0 {
		c.Simulator.BatchSize = 25
	}
}
