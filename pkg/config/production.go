package config

func loadProductionConfig(cfg *Config) {
	cfg.ServerHost = "0.0.0.0"
}
