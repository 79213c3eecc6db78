package repository

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tastytracker/src/database"
	"tastytracker/src/model"
)

// ErrTransactionAlreadyClaimed is returned when a transaction in the group
// was claimed by another strategy between grouping and persisting. The whole
// unit of work rolls back; the caller retries the group, never resumes
// mid-way.
var ErrTransactionAlreadyClaimed = errors.New("transaction already claimed by another strategy")

// StrategyRepository handles the strategy persistence and audit-log unit of
// work. Every mutation appends a StrategyEditHistory row inside the same
// database transaction as the change it records.
type StrategyRepository struct {
	db *gorm.DB
}

// NewStrategyRepository creates a new repository instance using the main
// read/write database.
func NewStrategyRepository() *StrategyRepository {
	return &StrategyRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *StrategyRepository) WithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// CreateFromMatch materializes an identified strategy in one atomic unit:
// strategy row, transaction claims, leg rows and the create audit entry.
// Claims re-verify "still unassigned" inside the transaction, so two
// concurrent runs cannot both claim the same transaction even under
// read-committed isolation.
func (r *StrategyRepository) CreateFromMatch(
	ctx context.Context,
	strategy *model.TradingStrategy,
	legs []model.StrategyLeg,
	txnIDs []uint,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":       "StrategyRepository",
		"op":         "CreateFromMatch",
		"type":       strategy.StrategyType,
		"underlying": strategy.UnderlyingSymbol,
		"txn_count":  len(txnIDs),
	}).Debug("Creating identified strategy")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(strategy).Error; err != nil {
			return fmt.Errorf("create strategy: %w", err)
		}

		claim := tx.Model(&model.Transaction{}).
			Where("id IN ? AND strategy_id IS NULL", txnIDs).
			Update("strategy_id", strategy.ID)
		if claim.Error != nil {
			return fmt.Errorf("claim transactions: %w", claim.Error)
		}
		if claim.RowsAffected != int64(len(txnIDs)) {
			return ErrTransactionAlreadyClaimed
		}

		for i := range legs {
			legs[i].StrategyID = strategy.ID
		}
		if len(legs) > 0 {
			if err := tx.Create(&legs).Error; err != nil {
				return fmt.Errorf("create legs: %w", err)
			}
		}

		history := model.StrategyEditHistory{
			StrategyID:    strategy.ID,
			UserID:        strategy.UserID,
			Action:        model.ActionCreate,
			PreviousState: map[string]any{},
			NewState: map[string]any{
				"strategy_type":     strategy.StrategyType,
				"underlying":        strategy.UnderlyingSymbol,
				"confidence":        strategy.ConfidenceScore.String(),
				"transaction_count": len(txnIDs),
			},
			Reason:                 model.ReasonAutoIdentification,
			AffectedTransactionIDs: txnIDs,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create edit history: %w", err)
		}

		return nil
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "StrategyRepository",
			"op":         "CreateFromMatch",
			"underlying": strategy.UnderlyingSymbol,
		}).WithError(err).Error("Strategy creation rolled back")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "StrategyRepository",
		"op":          "CreateFromMatch",
		"strategy_id": strategy.ID,
		"type":        strategy.StrategyType,
	}).Info("Strategy created")

	return nil
}

// FindByID fetches a single strategy with its legs.
// Returns (nil, nil) if not found.
func (r *StrategyRepository) FindByID(
	ctx context.Context,
	id uint,
) (*model.TradingStrategy, error) {

	var strategy model.TradingStrategy
	err := r.db.WithContext(ctx).
		Preload("Legs").
		First(&strategy, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "StrategyRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch strategy")

		return nil, err
	}

	return &strategy, nil
}

// StrategySearchOptions filters the Search query.
type StrategySearchOptions struct {
	UserID        uint
	AccountNumber *string
	Status        *string
	StrategyType  *string
	Limit         int
	Offset        int
}

// Search fetches strategies for a user, newest first, legs preloaded.
func (r *StrategyRepository) Search(
	ctx context.Context,
	opts StrategySearchOptions,
) ([]model.TradingStrategy, error) {

	query := r.db.WithContext(ctx).Where("user_id = ?", opts.UserID)

	if opts.AccountNumber != nil {
		query = query.Where("account_number = ?", *opts.AccountNumber)
	}
	if opts.Status != nil {
		query = query.Where("status = ?", *opts.Status)
	}
	if opts.StrategyType != nil {
		query = query.Where("strategy_type = ?", *opts.StrategyType)
	}

	query = query.Order("created_at DESC, id DESC").Preload("Legs")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var strategies []model.TradingStrategy
	if err := query.Find(&strategies).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "StrategyRepository",
			"op":      "Search",
			"user_id": opts.UserID,
		}).WithError(err).Error("Failed to search strategies")

		return nil, err
	}

	return strategies, nil
}

// UpdateStatus moves a strategy through its lifecycle and records the
// transition in the audit log.
func (r *StrategyRepository) UpdateStatus(
	ctx context.Context,
	strategyID uint,
	status string,
	reason string,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var strategy model.TradingStrategy
		if err := tx.First(&strategy, strategyID).Error; err != nil {
			return fmt.Errorf("load strategy: %w", err)
		}

		previous := strategy.Status
		if err := tx.Model(&strategy).Update("status", status).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		history := model.StrategyEditHistory{
			StrategyID:    strategy.ID,
			UserID:        strategy.UserID,
			Action:        model.ActionUpdate,
			PreviousState: map[string]any{"status": previous},
			NewState:      map[string]any{"status": status},
			Reason:        reason,
		}
		return tx.Create(&history).Error
	})
}

// AddTransactions claims extra transactions into an existing strategy,
// rebuilds its legs and appends an add_transaction audit entry, all within
// one unit of work.
func (r *StrategyRepository) AddTransactions(
	ctx context.Context,
	strategyID uint,
	txnIDs []uint,
	reason string,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var strategy model.TradingStrategy
		if err := tx.First(&strategy, strategyID).Error; err != nil {
			return fmt.Errorf("load strategy: %w", err)
		}

		claim := tx.Model(&model.Transaction{}).
			Where("id IN ? AND strategy_id IS NULL", txnIDs).
			Update("strategy_id", strategy.ID)
		if claim.Error != nil {
			return fmt.Errorf("claim transactions: %w", claim.Error)
		}
		if claim.RowsAffected != int64(len(txnIDs)) {
			return ErrTransactionAlreadyClaimed
		}

		previousLegs, err := rebuildLegs(tx, &strategy)
		if err != nil {
			return err
		}

		history := model.StrategyEditHistory{
			StrategyID:             strategy.ID,
			UserID:                 strategy.UserID,
			Action:                 model.ActionAddTransaction,
			PreviousState:          map[string]any{"legs_count": previousLegs},
			NewState:               map[string]any{"added": len(txnIDs)},
			Reason:                 reason,
			AffectedTransactionIDs: txnIDs,
		}
		return tx.Create(&history).Error
	})
}

// RemoveTransaction releases a transaction from a strategy, rebuilds the
// legs and appends a remove_transaction audit entry.
func (r *StrategyRepository) RemoveTransaction(
	ctx context.Context,
	strategyID uint,
	txnID uint,
	reason string,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var strategy model.TradingStrategy
		if err := tx.First(&strategy, strategyID).Error; err != nil {
			return fmt.Errorf("load strategy: %w", err)
		}

		release := tx.Model(&model.Transaction{}).
			Where("id = ? AND strategy_id = ?", txnID, strategy.ID).
			Update("strategy_id", nil)
		if release.Error != nil {
			return fmt.Errorf("release transaction: %w", release.Error)
		}
		if release.RowsAffected == 0 {
			return fmt.Errorf("transaction %d is not a member of strategy %d", txnID, strategy.ID)
		}

		previousLegs, err := rebuildLegs(tx, &strategy)
		if err != nil {
			return err
		}

		history := model.StrategyEditHistory{
			StrategyID:             strategy.ID,
			UserID:                 strategy.UserID,
			Action:                 model.ActionRemoveTransaction,
			PreviousState:          map[string]any{"legs_count": previousLegs},
			NewState:               map[string]any{"removed": 1},
			Reason:                 reason,
			AffectedTransactionIDs: []uint{txnID},
		}
		return tx.Create(&history).Error
	})
}

// Delete removes a strategy and its legs, releases the member transactions
// back to the unassigned pool and appends a delete audit entry. Audit rows
// outlive the strategy they describe.
func (r *StrategyRepository) Delete(
	ctx context.Context,
	strategyID uint,
	reason string,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var strategy model.TradingStrategy
		if err := tx.First(&strategy, strategyID).Error; err != nil {
			return fmt.Errorf("load strategy: %w", err)
		}

		release := tx.Model(&model.Transaction{}).
			Where("strategy_id = ?", strategy.ID).
			Update("strategy_id", nil)
		if release.Error != nil {
			return fmt.Errorf("release transactions: %w", release.Error)
		}

		history := model.StrategyEditHistory{
			StrategyID: strategy.ID,
			UserID:     strategy.UserID,
			Action:     model.ActionDelete,
			PreviousState: map[string]any{
				"strategy_type": strategy.StrategyType,
				"underlying":    strategy.UnderlyingSymbol,
				"status":        strategy.Status,
			},
			NewState: map[string]any{},
			Reason:   reason,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create edit history: %w", err)
		}

		if err := tx.Where("strategy_id = ?", strategy.ID).
			Delete(&model.StrategyLeg{}).Error; err != nil {
			return fmt.Errorf("delete legs: %w", err)
		}

		return tx.Delete(&strategy).Error
	})
}

// rebuildLegs recreates the materialized leg rows from the strategy's
// current transaction set. Returns the previous leg count.
func rebuildLegs(tx *gorm.DB, strategy *model.TradingStrategy) (int64, error) {
	var previous int64
	if err := tx.Model(&model.StrategyLeg{}).
		Where("strategy_id = ?", strategy.ID).
		Count(&previous).Error; err != nil {
		return 0, fmt.Errorf("count legs: %w", err)
	}

	if err := tx.Where("strategy_id = ?", strategy.ID).
		Delete(&model.StrategyLeg{}).Error; err != nil {
		return 0, fmt.Errorf("delete legs: %w", err)
	}

	var members []model.Transaction
	if err := tx.Where("strategy_id = ?", strategy.ID).
		Order("trade_date ASC, id ASC").
		Find(&members).Error; err != nil {
		return 0, fmt.Errorf("load member transactions: %w", err)
	}

	legs := model.BuildLegs(members)
	for i := range legs {
		legs[i].StrategyID = strategy.ID
	}
	if len(legs) > 0 {
		if err := tx.Create(&legs).Error; err != nil {
			return 0, fmt.Errorf("recreate legs: %w", err)
		}
	}

	return previous, nil
}
