package config

import "time"

func loadTestConfig(cfg *Config) {
	cfg.BackendURL = "http://localhost:6060"
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	cfg.DatabaseFilePath = ":memory:"
	cfg.ProbeInterval = 50 * time.Millisecond
	cfg.ServerPort = 0
	cfg.SyncInterval = time.Second
}
