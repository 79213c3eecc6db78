package identifier

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tastytracker/src/model"
)

// transactionSource supplies the unassigned transactions of one tenant.
// Satisfied by repository.TransactionRepository.
type transactionSource interface {
	FindUnassigned(ctx context.Context, userID uint, accountNumber string) ([]model.Transaction, error)
}

// strategyStore persists one confident match as an atomic unit.
// Satisfied by repository.StrategyRepository.
type strategyStore interface {
	CreateFromMatch(ctx context.Context, strategy *model.TradingStrategy, legs []model.StrategyLeg, txnIDs []uint) error
}

// GroupFailure records one group whose persistence failed during a run.
// Failures are isolated: the run continues with the next group.
type GroupFailure struct {
	Underlying    string `json:"underlying"`
	Day           string `json:"day"`
	AccountNumber string `json:"account_number"`
	Error         string `json:"error"`
}

// RunReport is the operator-facing summary of one identification pass.
type RunReport struct {
	RunID             string         `json:"run_id"`
	UserID            uint           `json:"user_id"`
	AccountNumber     string         `json:"account_number,omitempty"`
	DryRun            bool           `json:"dry_run"`
	GroupsExamined    int            `json:"groups_examined"`
	StrategiesCreated int            `json:"strategies_created"`
	BelowThreshold    int            `json:"below_threshold"`
	Failures          []GroupFailure `json:"failures,omitempty"`
}

// Identifier is the persisting batch identification engine: it pulls a
// user's unassigned transactions, groups them by context, classifies each
// group and materializes every match at or above the confidence threshold.
type Identifier struct {
	transactions transactionSource
	strategies   strategyStore
	cfg          Config
	log          *logger.Entry
}

// New builds an Identifier. A nil logger falls back to the standard one.
func New(
	transactions transactionSource,
	strategies strategyStore,
	cfg Config,
	log *logger.Entry,
) *Identifier {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	return &Identifier{
		transactions: transactions,
		strategies:   strategies,
		cfg:          cfg,
		log:          log,
	}
}

// IdentifyForUser runs one full batch pass over the user's unassigned
// transactions. It returns the newly created strategies plus a run report;
// the error is non-nil only when the initial transaction fetch fails.
// Per-group persistence failures land in the report, not in the error.
func (i *Identifier) IdentifyForUser(
	ctx context.Context,
	user *model.User,
	accountNumber string,
	dryRun bool,
) ([]*model.TradingStrategy, *RunReport, error) {

	report := &RunReport{
		RunID:         uuid.NewString(),
		UserID:        user.ID,
		AccountNumber: accountNumber,
		DryRun:        dryRun,
	}

	log := i.log.WithFields(logger.Fields{
		"component": "identifier",
		"run_id":    report.RunID,
		"user_id":   user.ID,
	})

	unassigned, err := i.transactions.FindUnassigned(ctx, user.ID, accountNumber)
	if err != nil {
		log.WithError(err).Error("Failed to load unassigned transactions")
		return nil, report, err
	}

	groups := GroupByContext(unassigned)
	report.GroupsExamined = len(groups)
	threshold := decimal.NewFromInt(i.cfg.ConfidenceThreshold)

	created := make([]*model.TradingStrategy, 0)

	for _, group := range groups {
		match := MatchGroup(group.Transactions)

		if match.Confidence.LessThan(threshold) {
			report.BelowThreshold++
			log.WithFields(logger.Fields{
				"underlying": group.Key.Underlying,
				"day":        group.Key.Day,
				"type":       match.StrategyType,
				"confidence": match.Confidence.String(),
			}).Debug("Group below confidence threshold, leaving unassigned")
			continue
		}

		strategy := buildStrategy(user, group, match)

		if dryRun {
			report.StrategiesCreated++
			created = append(created, strategy)
			continue
		}

		legs := model.BuildLegs(group.Transactions)
		txnIDs := make([]uint, 0, len(group.Transactions))
		for _, txn := range group.Transactions {
			txnIDs = append(txnIDs, txn.ID)
		}

		if err := i.strategies.CreateFromMatch(ctx, strategy, legs, txnIDs); err != nil {
			report.Failures = append(report.Failures, GroupFailure{
				Underlying:    group.Key.Underlying,
				Day:           group.Key.Day,
				AccountNumber: group.Key.AccountNumber,
				Error:         err.Error(),
			})
			log.WithFields(logger.Fields{
				"underlying": group.Key.Underlying,
				"day":        group.Key.Day,
			}).WithError(err).Error("Group persistence failed, continuing with next group")
			continue
		}

		report.StrategiesCreated++
		created = append(created, strategy)
	}

	log.WithFields(logger.Fields{
		"groups":   report.GroupsExamined,
		"created":  report.StrategiesCreated,
		"failures": len(report.Failures),
		"dry_run":  dryRun,
	}).Info("Identification run completed")

	return created, report, nil
}

// buildStrategy assembles the TradingStrategy row for a confident match.
// OpenedDate is the earliest member trade date; ExpiryDate the earliest
// member expiry when any leg carries one.
func buildStrategy(user *model.User, group Group, match MatchResult) *model.TradingStrategy {
	strategy := &model.TradingStrategy{
		UserID:           user.ID,
		AccountNumber:    group.Key.AccountNumber,
		StrategyType:     match.StrategyType,
		UnderlyingSymbol: match.UnderlyingSymbol,
		Status:           model.StatusOpen,
		IsSystemInferred: true,
		ConfidenceScore:  match.Confidence,
		ExpiryDate:       model.EarliestExpiry(group.Transactions),
	}

	if opened := model.EarliestTradeDate(group.Transactions); opened != nil {
		strategy.OpenedDate = *opened
	}
	if len(group.Transactions) > 0 {
		strategy.CredentialID = group.Transactions[0].CredentialID
	}

	return strategy
}
