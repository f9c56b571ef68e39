// Package config reads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config is the full process configuration. Everything has a usable
// default except the ERP DSNs, which stay empty when no ERP is
// reachable; ERP-backed features then report themselves unconfigured
// instead of failing on connect.
type Config struct {
	// DBPath is the sqlite database file. ":memory:" works for
	// throwaway runs.
	DBPath string `env:"PLANTAFEL_DB" envDefault:"plantafel.db"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `env:"PLANTAFEL_LISTEN" envDefault:":8080"`

	// ErpDSN is the live HUGWAWI MySQL DSN
	// (user:pass@tcp(host:3306)/hugwawi).
	ErpDSN string `env:"ERP_DSN"`

	// ErpTestDSN points at the ERP test host. Selected by ErpUseTest so
	// a planner can rehearse against test data without touching the
	// live order base.
	ErpTestDSN string `env:"ERP_TEST_DSN"`

	ErpUseTest bool `env:"ERP_USE_TEST" envDefault:"false"`

	// SyncOnStart runs one resource sync pass when the server starts.
	SyncOnStart bool `env:"PLANTAFEL_SYNC_ON_START" envDefault:"true"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// ActiveErpDSN returns the DSN selected by the test toggle. Empty means
// no ERP is configured.
func (c *Config) ActiveErpDSN() string {
	if c.ErpUseTest {
		return c.ErpTestDSN
	}
	return c.ErpDSN
}
