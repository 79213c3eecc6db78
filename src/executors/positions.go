package executors

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/mapper"
	"tastytracker/src/model"
)

// FetchUserPositions pulls every open position across the user's accounts
// and annotates option rows with model greeks.
func FetchUserPositions(ctx context.Context, user *model.User) ([]mapper.Position, error) {
	if user.Credential == nil {
		return nil, ErrNoCredential
	}

	client, err := authenticatedClient(ctx, user)
	if err != nil {
		return nil, err
	}

	accounts, err := client.FetchAccounts()
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}

	now := time.Now()

	var positions []mapper.Position
	for _, account := range accounts {
		items, err := client.FetchPositions(account)
		if err != nil {
			return nil, fmt.Errorf("fetch positions for %s: %w", account, err)
		}
		for _, item := range items {
			positions = append(positions, mapper.MapPositionItem(item, account, now))
		}
	}

	logger.WithFields(map[string]interface{}{
		"executor":  "positions",
		"user_id":   user.ID,
		"accounts":  len(accounts),
		"positions": len(positions),
	}).Info("Positions fetched")

	return positions, nil
}
