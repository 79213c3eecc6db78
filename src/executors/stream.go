package executors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/connectors"
	"tastytracker/src/model"
	"tastytracker/src/security"
)

// StreamUserActivity keeps a websocket subscription on the user's accounts
// and runs a broker sync whenever account activity comes through, instead
// of waiting for the next poll. Returns when the context is cancelled or
// the stream drops; the caller decides whether to reconnect.
func StreamUserActivity(ctx context.Context, user *model.User) error {
	cred := user.Credential
	if cred == nil {
		return ErrNoCredential
	}

	config := GetConfig()
	connCfg := connectors.GetConfig()
	secCfg := security.GetConfig()

	baseURL := connCfg.ProdBaseURL
	if cred.Environment == model.EnvironmentSandbox {
		baseURL = connCfg.SandboxBaseURL
	}

	// The streamer authenticates with a session token, so a password
	// login is required here even when OAuth tokens are stored.
	client := connectors.NewTastyTradeClient(baseURL, connCfg.OAuthClientID, connCfg.OAuthClientSecret)
	password, err := unseal(secCfg.CredentialsKey, cred.Password)
	if err != nil {
		return err
	}
	if err := client.Login(cred.Username, password); err != nil {
		return err
	}

	accounts, err := client.FetchAccounts()
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}
	if len(accounts) == 0 {
		return errors.New("no accounts to stream")
	}

	streamer := connectors.NewAccountStreamer(connCfg.StreamerURL, client.SessionToken())
	if err := streamer.Connect(ctx, accounts); err != nil {
		return err
	}

	log := logger.WithFields(map[string]interface{}{
		"executor": "stream",
		"user_id":  user.ID,
		"accounts": len(accounts),
	})
	log.Info("Streaming account activity")

	return streamer.Run(ctx, func(msg connectors.StreamerMessage) {
		if !shouldTriggerSync(msg) {
			return
		}
		log.WithField("type", msg.Type).Info("Account activity, syncing")
		if _, err := syncUser(ctx, user, config.SyncLookback); err != nil {
			log.WithError(err).Warn("Stream-triggered sync failed")
		}
	})
}

// shouldTriggerSync filters stream events down to the ones that can change
// the transaction ledger. Connection acks and heartbeats are skipped.
func shouldTriggerSync(msg connectors.StreamerMessage) bool {
	switch strings.ToLower(msg.Type) {
	case "order", "fill", "accounttradingstatus", "cashbalance":
		return true
	}
	return false
}
