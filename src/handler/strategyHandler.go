package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"tastytracker/src/identifier"
	"tastytracker/src/model"
	"tastytracker/src/repository"
)

type userGetter interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

type strategySearcher interface {
	Search(ctx context.Context, opts repository.StrategySearchOptions) ([]model.TradingStrategy, error)
}

type identifyRunner interface {
	IdentifyForUser(ctx context.Context, user *model.User, accountNumber string, dryRun bool) ([]*model.TradingStrategy, *identifier.RunReport, error)
}

// userFromRequest resolves the userId query parameter to a user row.
// Writes the error response itself and returns nil when resolution fails.
func userFromRequest(w http.ResponseWriter, r *http.Request, users userGetter) *model.User {
	idParam := r.URL.Query().Get("userId")
	if idParam == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return nil
	}

	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return nil
	}

	user, err := users.GetByID(r.Context(), uint(id))
	if err != nil {
		logger.WithError(err).Error("failed to load user")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return nil
	}
	return user
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// IdentifyHandler runs a persisting identification pass for one user.
// Query params: userId (required), account, dryRun.
func IdentifyHandler(users userGetter, ident identifyRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromRequest(w, r, users)
		if user == nil {
			return
		}

		account := r.URL.Query().Get("account")

		dryRun := false
		if dryParam := r.URL.Query().Get("dryRun"); dryParam != "" {
			parsed, err := strconv.ParseBool(dryParam)
			if err != nil {
				http.Error(w, "invalid dryRun", http.StatusBadRequest)
				return
			}
			dryRun = parsed
		}

		strategies, report, err := ident.IdentifyForUser(r.Context(), user, account, dryRun)
		if err != nil {
			logger.WithError(err).Error("identification run failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"report":     report,
			"strategies": strategies,
		})
	}
}

// SearchStrategiesHandler lists a user's strategies, newest first.
// Query params: userId (required), account, status, type, page, pageSize.
func SearchStrategiesHandler(users userGetter, repo strategySearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromRequest(w, r, users)
		if user == nil {
			return
		}

		opts := repository.StrategySearchOptions{UserID: user.ID}

		if account := r.URL.Query().Get("account"); account != "" {
			opts.AccountNumber = &account
		}
		if status := r.URL.Query().Get("status"); status != "" {
			opts.Status = &status
		}
		if strategyType := r.URL.Query().Get("type"); strategyType != "" {
			opts.StrategyType = &strategyType
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsed, err := strconv.Atoi(pageParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsed
		}

		pageSize := 20
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsed, err := strconv.Atoi(sizeParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsed
		}

		opts.Limit = pageSize
		opts.Offset = (page - 1) * pageSize

		strategies, err := repo.Search(r.Context(), opts)
		if err != nil {
			logger.WithError(err).Error("failed to search strategies")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, strategies)
	}
}

// DefaultIdentifyHandler wires the handler to production dependencies.
func DefaultIdentifyHandler() http.HandlerFunc {
	ident := identifier.New(
		repository.NewTransactionRepository(),
		repository.NewStrategyRepository(),
		identifier.GetConfig(),
		nil,
	)
	return IdentifyHandler(repository.NewUserRepository(), ident)
}

// DefaultSearchStrategiesHandler wires the handler to the production repositories.
func DefaultSearchStrategiesHandler() http.HandlerFunc {
	return SearchStrategiesHandler(repository.NewUserRepository(), repository.NewStrategyRepository())
}
