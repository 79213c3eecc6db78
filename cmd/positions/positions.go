// Package positions prints a user's open broker positions with model
// greeks for the option rows.
package positions

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

type Positions struct {
	Username string
}

func (t *Positions) Start() error {
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

	positions, err := executors.FetchUserPositions(ctx, user)
	if err != nil {
		logrus.WithError(err).Error("Failed to fetch positions")
		return err
	}

	for _, pos := range positions {
		line := fmt.Sprintf("%-10s %-24s qty=%s", pos.AccountNumber, pos.Symbol, pos.Quantity.String())
		if pos.Greeks != nil {
			line += fmt.Sprintf(" delta=%.4f theta=%.4f vega=%.4f", pos.Greeks.Delta, pos.Greeks.Theta, pos.Greeks.Vega)
		}
		fmt.Println(line)
	}
	fmt.Printf("%d open positions for %s\n", len(positions), t.Username)

	return nil
}
