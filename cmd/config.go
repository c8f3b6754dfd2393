package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	HistoryPageSize      int           `env:"HISTORY_PAGE_SIZE,default=50"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	// AUTH_MODE selects the identity resolver: "service" calls the external
	// identity service, "local" validates signed tokens against a shared
	// secret for development setups without the service.
	AuthMode        string        `env:"AUTH_MODE,default=service"`
	AuthServiceURL  string        `env:"AUTH_SERVICE_URL"`
	AuthTimeout     time.Duration `env:"AUTH_TIMEOUT,default=5s"`
	LocalAuthSecret string        `env:"LOCAL_AUTH_SECRET"`

	PresenceRetention time.Duration `env:"PRESENCE_RETENTION,default=1h"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=5m"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	DebugPort         int           `env:"DEBUG_PORT"`
}
