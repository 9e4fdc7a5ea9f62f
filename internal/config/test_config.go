package config

// LoadTestConfig returns a config suitable for package tests: a
// throwaway sqlite database and a fixed JWT secret
func LoadTestConfig(dbPath string) *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8081,
			PublicURL: "http://localhost:8081",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   dbPath,
		},
		JWT: JWTConfig{
			Secret: "test-secret-key-for-testing-only",
		},
		SMTP: SMTPConfig{
			From: "noreply@adboard.test",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Digest: DigestConfig{
			Schedule: "0 8 * * 1",
		},
	}
}
