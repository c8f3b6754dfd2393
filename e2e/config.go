package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR points the suite at a running server; the suite skips
	// itself when unset.
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	// E2E_AUTH_SECRET must match a server started with AUTH_MODE=local.
	AuthSecret string `envconfig:"E2E_AUTH_SECRET" default:"e2e-secret"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
