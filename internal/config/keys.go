package config

import "os"

// SecretSource represents where a secret comes from.
type SecretSource string

const (
	SecretSourceEnv    SecretSource = "env"
	SecretSourceConfig SecretSource = "config"
	SecretSourceNone   SecretSource = "none"
)

// SecretStatus represents the status of a credential.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "AKI...XYZ"
}

// CheckSecrets returns the status of the store credentials.
func CheckSecrets(cfg *Config) []SecretStatus {
	return []SecretStatus{
		checkSecret("S3 Access Key ID", cfg.Source.S3.AccessKeyID, envPrefix+"_SOURCE_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"),
		checkSecret("S3 Secret Access Key", cfg.Source.S3.SecretAccessKey, envPrefix+"_SOURCE_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"),
	}
}

// checkSecret checks if a secret is set and where it came from.
func checkSecret(name, value string, envVars ...string) SecretStatus {
	status := SecretStatus{
		Name:   name,
		IsSet:  value != "",
		Source: SecretSourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = SecretSourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = SecretSourceEnv
			break
		}
	}
	status.Masked = maskSecret(value)
	return status
}

// maskSecret masks a secret for display, showing only first 3 and last 3 chars.
func maskSecret(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
