package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/identifier"
	"tastytracker/src/model"
	"tastytracker/src/repository"
)

// Seams for tests.
var (
	syncUser = SyncUserTransactions

	identifyUser = func(ctx context.Context, user *model.User) (*identifier.RunReport, error) {
		ident := identifier.New(
			repository.NewTransactionRepository(),
			repository.NewStrategyRepository(),
			identifier.GetConfig(),
			nil,
		)
		_, report, err := ident.IdentifyForUser(ctx, user, "", false)
		return report, err
	}

	loadUsers = loadConfiguredUsers
)

// StartLoop runs the background identification pass on a fixed period until
// the context is cancelled. Each tick syncs broker transactions (when
// enabled) and classifies unassigned ones for every active user. One user's
// failure never stops the loop.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	ticker := time.NewTicker(config.LoopPeriod)
	defer ticker.Stop()

	logger.WithFields(map[string]interface{}{
		"executor":    "identify_loop",
		"loop_period": config.LoopPeriod.String(),
		"target_user": config.TargetUser,
	}).Info("Identification loop started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Identification loop stopped")
			return nil

		case <-ticker.C:
			if err := runPass(ctx, config); err != nil {
				logger.WithError(err).Error("Identification pass failed, will exit")
				return err
			}
		}
	}
}

// runPass executes one full pass over the configured users.
func runPass(ctx context.Context, config Config) error {
	users, err := loadUsers(ctx, config)
	if err != nil {
		return err
	}

	for i := range users {
		user := &users[i]
		log := logger.WithFields(map[string]interface{}{
			"executor": "identify_loop",
			"user_id":  user.ID,
			"username": user.Username,
		})

		if config.SyncBeforeIdentify && user.Credential != nil {
			if _, err := syncUser(ctx, user, config.SyncLookback); err != nil {
				log.WithError(err).Warn("Broker sync failed, identifying existing transactions only")
			}
		}

		report, err := identifyUser(ctx, user)
		if err != nil {
			log.WithError(err).Error("Identification failed for user")
			continue
		}

		log.WithFields(map[string]interface{}{
			"run_id":             report.RunID,
			"groups_examined":    report.GroupsExamined,
			"strategies_created": report.StrategiesCreated,
			"below_threshold":    report.BelowThreshold,
			"failures":           len(report.Failures),
		}).Info("Identification pass done for user")
	}

	return nil
}

func loadConfiguredUsers(ctx context.Context, config Config) ([]model.User, error) {
	userRep := repository.NewUserRepository()

	if config.TargetUser != "" {
		user, err := userRep.GetUserByUserName(ctx, config.TargetUser)
		if err != nil {
			return nil, err
		}
		if user == nil {
			logger.WithField("username", config.TargetUser).Warn("Target user not found")
			return nil, nil
		}
		return []model.User{*user}, nil
	}

	return userRep.FindActive(ctx)
}
