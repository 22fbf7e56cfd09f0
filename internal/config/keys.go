package config

import "os"

// SecretSource represents where a connection secret comes from.
type SecretSource string

const (
	SourceEnv    SecretSource = "env"
	SourceConfig SecretSource = "config"
	SourceNone   SecretSource = "none"
)

// SecretStatus describes one configured connection string.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"`
}

// CheckSecrets reports which optional backends are configured.
func CheckSecrets(cfg *Config) []SecretStatus {
	return []SecretStatus{
		checkSecret("Database URL", cfg.Database.URL, EnvPrefix+"_DATABASE_URL", "DATABASE_URL"),
		checkSecret("Redis URL", cfg.Redis.URL, EnvPrefix+"_REDIS_URL", "REDIS_URL"),
	}
}

func checkSecret(name, value string, envVars ...string) SecretStatus {
	status := SecretStatus{Name: name, IsSet: value != "", Source: SourceNone}
	if value == "" {
		return status
	}
	status.Source = SourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = SourceEnv
			break
		}
	}
	status.Masked = mask(value)
	return status
}

// mask shows only the first and last 3 characters.
func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:3] + "..." + s[len(s)-3:]
}
