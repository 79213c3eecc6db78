package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tastytracker/src/database"
	"tastytracker/src/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *UserRepository) WithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByUserName looks a user up by username. Returns (nil, nil) when no
// such user exists.
func (r *UserRepository) GetUserByUserName(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Credential").
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "UserRepository",
			"op":       "GetUserByUserName",
			"username": username,
		}).WithError(err).Error("Failed to fetch user")
		return nil, err
	}
	return &user, nil
}

// GetByID looks a user up by primary key. Returns (nil, nil) when no such
// user exists.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Credential").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActive returns every active user with their broker credential
// preloaded.
func (r *UserRepository) FindActive(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Credential").
		Where("active = ?", true).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "UserRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to list active users")
		return nil, err
	}
	return users, nil
}

// SaveCredential persists token updates after a broker login or refresh.
func (r *UserRepository) SaveCredential(ctx context.Context, cred *model.TastyTradeCredential) error {
	return r.db.WithContext(ctx).Save(cred).Error
}
