// Package stream follows a user's account activity over the broker
// websocket and syncs transactions as events arrive.
package stream

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

type Stream struct {
	Username string
}

func (t *Stream) Start() error {
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

	if err := executors.StreamUserActivity(ctx, user); err != nil {
		logrus.WithError(err).Error("Account stream ended")
		return err
	}

	return nil
}
