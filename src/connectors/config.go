package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ProdBaseURL       string `envconfig:"TT_API_BASE_URL" default:"https://api.tastytrade.com"`
	SandboxBaseURL    string `envconfig:"TT_SANDBOX_API_BASE_URL" default:"https://api.cert.tastyworks.com"`
	OAuthClientID     string `envconfig:"TT_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `envconfig:"TT_OAUTH_CLIENT_SECRET"`
	// StreamerURL overrides the account streamer endpoint; empty means
	// the production streamer.
	StreamerURL string `envconfig:"TT_STREAMER_URL"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
