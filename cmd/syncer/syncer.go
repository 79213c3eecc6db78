// Package syncer imports transaction history from the brokerage into the
// local database.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tastytracker/src/database"
	"tastytracker/src/executors"
	"tastytracker/src/repository"
)

type Syncer struct {
	Username string
}

func (t *Syncer) Start() error {
	config := executors.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if t.Username == "" {
		return errors.New("a username is required")
	}

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to main database")
		return err
	}

	user, err := repository.NewUserRepository().GetUserByUserName(ctx, t.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q not found", t.Username)
	}

	inserted, err := executors.SyncUserTransactions(ctx, user, config.SyncLookback)
	if err != nil {
		logrus.WithError(err).Error("Broker sync failed")
		return err
	}

	fmt.Printf("imported %d new transactions for %s\n", inserted, t.Username)
	return nil
}
