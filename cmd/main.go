package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tastytracker/cmd/identify"
	"tastytracker/cmd/positions"
	"tastytracker/cmd/stream"
	"tastytracker/cmd/syncer"
	"tastytracker/src/database"
	"tastytracker/src/executors"
	"tastytracker/src/server"
)

var Version string

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "TastyTracker CMD"
	app.Usage = "The TastyTracker command line interface"

	app.Commands = []cli.Command{
		identifyCMD,
		syncCMD,
		positionsCMD,
		streamCMD,
		loopCMD,
		serveCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	identifyCMD = cli.Command{
		Name:      "identify",
		Usage:     "run one strategy identification pass for a user",
		Action:    identifyAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "user", Usage: "username to identify strategies for"},
			cli.StringFlag{Name: "account", Usage: "restrict to one account number"},
			cli.BoolFlag{Name: "dry-run", Usage: "report matches without persisting"},
		},
		Description: `Groups a user's unassigned transactions and persists recognized strategies`,
	}
	syncCMD = cli.Command{
		Name:      "sync",
		Usage:     "import broker transaction history for a user",
		Action:    syncAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "user", Usage: "username to sync"},
		},
		Description: `Fetches transactions from the brokerage and upserts them locally`,
	}
	positionsCMD = cli.Command{
		Name:      "positions",
		Usage:     "list open broker positions with option greeks",
		Action:    positionsAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "user", Usage: "username to list positions for"},
		},
		Description: `Fetches open positions and prints delta/theta/vega for option rows`,
	}
	streamCMD = cli.Command{
		Name:      "stream",
		Usage:     "follow account activity and sync as it happens",
		Action:    streamAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "user", Usage: "username to stream"},
		},
		Description: `Subscribes to the broker account streamer and syncs on activity`,
	}
	loopCMD = cli.Command{
		Name:        "loop",
		Usage:       "run the background sync-and-identify loop",
		Action:      loopAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Runs sync and identification for all active users on a fixed period`,
	}
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the HTTP API",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serves the strategy and transaction endpoints`,
	}
)

func identifyAction(c *cli.Context) error {
	logrus.Info("Starting identify CMD")

	cmd := &identify.Identify{
		Username:      c.String("user"),
		AccountNumber: c.String("account"),
		DryRun:        c.Bool("dry-run"),
	}
	if err := cmd.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func syncAction(c *cli.Context) error {
	logrus.Info("Starting sync CMD")

	cmd := &syncer.Syncer{Username: c.String("user")}
	if err := cmd.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func positionsAction(c *cli.Context) error {
	logrus.Info("Starting positions CMD")

	cmd := &positions.Positions{Username: c.String("user")}
	if err := cmd.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func streamAction(c *cli.Context) error {
	logrus.Info("Starting stream CMD")

	cmd := &stream.Stream{Username: c.String("user")}
	if err := cmd.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func loopAction(_ *cli.Context) error {
	logrus.Info("Starting identification loop CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting HTTP API CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig().Port)
	return nil
}
