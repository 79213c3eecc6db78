package identifier

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config controls the batch identification pass. ConfidenceThreshold is the
// minimum pattern-match score that gets auto-persisted; groups scoring below
// it are reported but left unassigned.
type Config struct {
	ConfidenceThreshold int64         `envconfig:"IDENTIFIER_CONFIDENCE_THRESHOLD" default:"75"`
	SessionWindow       time.Duration `envconfig:"IDENTIFIER_SESSION_WINDOW" default:"2m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
