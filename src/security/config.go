package security

import "github.com/kelseyhightower/envconfig"

type Config struct {
	// CredentialsKey seals stored broker tokens at rest. Must be a
	// 64-char hex string (32 bytes). Sealing is disabled when empty.
	CredentialsKey string `envconfig:"CREDENTIALS_KEY" default:""`
}

func GetConfig() Config {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		panic(err.Error())
	}
	return config
}
