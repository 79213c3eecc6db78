package executors

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/connectors"
	"tastytracker/src/mapper"
	"tastytracker/src/model"
	"tastytracker/src/repository"
	"tastytracker/src/security"
)

var ErrNoCredential = errors.New("user has no broker credential")

// SyncUserTransactions logs into the broker with the user's stored
// credential, pulls transaction history for every account, and upserts it.
// Returns the number of newly inserted rows; already-imported rows are
// skipped by external id.
func SyncUserTransactions(ctx context.Context, user *model.User, lookback time.Duration) (int64, error) {
	cred := user.Credential
	if cred == nil {
		return 0, ErrNoCredential
	}

	client, err := authenticatedClient(ctx, user)
	if err != nil {
		return 0, err
	}

	accounts, err := client.FetchAccounts()
	if err != nil {
		return 0, fmt.Errorf("fetch accounts: %w", err)
	}

	startDate := time.Now().Add(-lookback)

	var batch []model.Transaction
	for _, account := range accounts {
		items, err := client.FetchTransactions(account, &startDate)
		if err != nil {
			return 0, fmt.Errorf("fetch transactions for %s: %w", account, err)
		}
		for _, item := range items {
			batch = append(batch, mapper.MapTransactionItem(item, user.ID, &cred.ID, account))
		}
	}

	inserted, err := repository.NewTransactionRepository().UpsertBatch(ctx, batch)
	if err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"executor": "sync",
		"user_id":  user.ID,
		"accounts": len(accounts),
		"fetched":  len(batch),
		"inserted": inserted,
	}).Info("Broker sync finished")

	return inserted, nil
}

// authenticatedClient builds a broker client for the user's environment and
// authenticates it, preferring an OAuth refresh over a fresh password login.
// Rotated tokens are sealed and written back to the credential row.
func authenticatedClient(ctx context.Context, user *model.User) (*connectors.TastyTradeClient, error) {
	cred := user.Credential
	connCfg := connectors.GetConfig()
	secCfg := security.GetConfig()

	baseURL := connCfg.ProdBaseURL
	if cred.Environment == model.EnvironmentSandbox {
		baseURL = connCfg.SandboxBaseURL
	}

	client := connectors.NewTastyTradeClient(baseURL, connCfg.OAuthClientID, connCfg.OAuthClientSecret)

	if cred.AccessToken != "" && cred.TokenExpiry != nil && cred.TokenExpiry.After(time.Now().Add(time.Minute)) {
		token, err := unseal(secCfg.CredentialsKey, cred.AccessToken)
		if err != nil {
			return nil, err
		}
		client.UseBearerToken(token)
		return client, nil
	}

	if cred.RefreshToken != "" {
		refresh, err := unseal(secCfg.CredentialsKey, cred.RefreshToken)
		if err != nil {
			return nil, err
		}
		update, err := client.RefreshAccessToken(refresh)
		if err != nil {
			return nil, err
		}
		if err := storeTokens(ctx, cred, secCfg.CredentialsKey, update); err != nil {
			logger.WithError(err).Warn("Failed to persist rotated tokens")
		}
		return client, nil
	}

	password, err := unseal(secCfg.CredentialsKey, cred.Password)
	if err != nil {
		return nil, err
	}
	if err := client.Login(cred.Username, password); err != nil {
		return nil, err
	}
	return client, nil
}

func storeTokens(ctx context.Context, cred *model.TastyTradeCredential, key string, update *connectors.TokenUpdate) error {
	access, err := seal(key, update.AccessToken)
	if err != nil {
		return err
	}
	cred.AccessToken = access

	if update.RefreshToken != "" {
		refresh, err := seal(key, update.RefreshToken)
		if err != nil {
			return err
		}
		cred.RefreshToken = refresh
	}

	expiry := update.ExpiresAt
	cred.TokenExpiry = &expiry

	return repository.NewUserRepository().SaveCredential(ctx, cred)
}

// seal and unseal pass values through unchanged when no credentials key is
// configured, so local setups can run without sealing.
func seal(key, plaintext string) (string, error) {
	if key == "" {
		return plaintext, nil
	}
	return security.EncryptString(key, plaintext)
}

func unseal(key, stored string) (string, error) {
	if key == "" {
		return stored, nil
	}
	return security.DecryptString(key, stored)
}
