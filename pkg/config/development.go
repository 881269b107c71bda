package config

func loadDevelopmentConfig(cfg *Config) {
	cfg.BackendURL = "http://localhost:6060"
	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/agent.sqlite"
}
