// Package identify runs a one-shot strategy identification pass from the
// command line.
package identify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tastytracker/src/database"
	"tastytracker/src/identifier"
	"tastytracker/src/repository"
)

type Identify struct {
	Username      string
	AccountNumber string
	DryRun        bool
}

func (t *Identify) Start() error {
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

	ident := identifier.New(
		repository.NewTransactionRepository(),
		repository.NewStrategyRepository(),
		identifier.GetConfig(),
		logrus.WithField("cmd", "identify"),
	)

	strategies, report, err := ident.IdentifyForUser(ctx, user, t.AccountNumber, t.DryRun)
	if err != nil {
		logrus.WithError(err).Error("Identification run failed")
		return err
	}

	printReport(report, t.DryRun)
	for _, s := range strategies {
		fmt.Printf("  %-20s %-8s confidence=%s legs=%d\n",
			s.StrategyType, s.UnderlyingSymbol, s.ConfidenceScore.StringFixed(0), len(s.Legs))
	}

	return nil
}

func printReport(report *identifier.RunReport, dryRun bool) {
	mode := "persisted"
	if dryRun {
		mode = "dry-run"
	}
	fmt.Printf("run %s (%s): groups=%d created=%d below_threshold=%d failures=%d\n",
		report.RunID, mode, report.GroupsExamined, report.StrategiesCreated,
		report.BelowThreshold, len(report.Failures))

	for _, f := range report.Failures {
		fmt.Printf("  failed group %s/%s: %s\n", f.Underlying, f.Day, f.Error)
	}
}
