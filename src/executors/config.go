package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// LoopPeriod is how often the background pass runs over all active
	// users.
	LoopPeriod time.Duration `envconfig:"LOOP_PERIOD" default:"5m"`

	// TargetUser restricts the loop to one username when set.
	TargetUser string `envconfig:"TARGET_USER"`

	// SyncBeforeIdentify pulls fresh broker transactions before each
	// identification pass.
	SyncBeforeIdentify bool `envconfig:"SYNC_BEFORE_IDENTIFY" default:"true"`

	// SyncLookback bounds the transaction history window requested from
	// the broker on each sync.
	SyncLookback time.Duration `envconfig:"SYNC_LOOKBACK" default:"2160h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
