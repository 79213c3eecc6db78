package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tastytracker/src/database"
	"tastytracker/src/model"
)

// TransactionRepository handles read/write operations for brokerage
// transactions.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new repository instance using the main
// read/write database.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *TransactionRepository) WithDB(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// FindUnassigned fetches all transactions for a user that are not yet
// claimed by a strategy, ordered by trade date ascending. An empty
// accountNumber means all accounts.
func (r *TransactionRepository) FindUnassigned(
	ctx context.Context,
	userID uint,
	accountNumber string,
) ([]model.Transaction, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "TransactionRepository",
		"op":      "FindUnassigned",
		"user_id": userID,
		"account": accountNumber,
	}).Debug("Fetching unassigned transactions")

	query := r.db.WithContext(ctx).
		Where("user_id = ? AND strategy_id IS NULL", userID)

	if accountNumber != "" {
		query = query.Where("account_number = ?", accountNumber)
	}

	var txns []model.Transaction
	err := query.Order("trade_date ASC, id ASC").Find(&txns).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TransactionRepository",
			"op":      "FindUnassigned",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch unassigned transactions")

		return nil, err
	}

	return txns, nil
}

// TransactionSearchOptions filters the Search query.
type TransactionSearchOptions struct {
	UserID        uint
	AccountNumber *string
	Symbol        *string
	TradedAfter   *time.Time
	TradedBefore  *time.Time
	Limit         int
	Offset        int
}

// Search fetches transactions for display, newest first.
func (r *TransactionRepository) Search(
	ctx context.Context,
	opts TransactionSearchOptions,
) ([]model.Transaction, error) {

	query := r.db.WithContext(ctx).Where("user_id = ?", opts.UserID)

	if opts.AccountNumber != nil {
		query = query.Where("account_number = ?", *opts.AccountNumber)
	}
	if opts.Symbol != nil {
		query = query.Where("symbol = ?", *opts.Symbol)
	}
	if opts.TradedAfter != nil {
		query = query.Where("trade_date >= ?", *opts.TradedAfter)
	}
	if opts.TradedBefore != nil {
		query = query.Where("trade_date <= ?", *opts.TradedBefore)
	}

	query = query.Order("trade_date DESC, id DESC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var txns []model.Transaction
	if err := query.Find(&txns).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "TransactionRepository",
			"op":      "Search",
			"user_id": opts.UserID,
		}).WithError(err).Error("Failed to search transactions")

		return nil, err
	}

	return txns, nil
}

// UpsertBatch inserts synced transactions, skipping rows whose external id
// is already present. Returns the number of newly inserted rows.
func (r *TransactionRepository) UpsertBatch(
	ctx context.Context,
	txns []model.Transaction,
) (int64, error) {

	if len(txns) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(&txns)

	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TransactionRepository",
			"op":    "UpsertBatch",
			"count": len(txns),
		}).WithError(result.Error).Error("Failed to upsert transactions")

		return 0, result.Error
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TransactionRepository",
		"op":       "UpsertBatch",
		"received": len(txns),
		"inserted": result.RowsAffected,
	}).Info("Transactions synced")

	return result.RowsAffected, nil
}
