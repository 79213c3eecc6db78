package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/identifier"
	"tastytracker/src/model"
	"tastytracker/src/repository"
)

type unassignedFinder interface {
	FindUnassigned(ctx context.Context, userID uint, accountNumber string) ([]model.Transaction, error)
}

// AnnotatedTransactionsHandler returns a user's unassigned transactions with
// display-only strategy labels attached. Nothing is persisted.
// Query params: userId (required), account.
func AnnotatedTransactionsHandler(users userGetter, txnRepo unassignedFinder, cfg identifier.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromRequest(w, r, users)
		if user == nil {
			return
		}

		account := r.URL.Query().Get("account")

		txns, err := txnRepo.FindUnassigned(r.Context(), user.ID, account)
		if err != nil {
			logger.WithError(err).Error("failed to fetch unassigned transactions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, identifier.AnnotateTransactions(txns, cfg.SessionWindow))
	}
}

// DefaultAnnotatedTransactionsHandler wires the handler to production dependencies.
func DefaultAnnotatedTransactionsHandler() http.HandlerFunc {
	return AnnotatedTransactionsHandler(
		repository.NewUserRepository(),
		repository.NewTransactionRepository(),
		identifier.GetConfig(),
	)
}
