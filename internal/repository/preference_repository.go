package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exchangedesk/internal/model"
	"exchangedesk/internal/prefs"
)

type PreferenceRepositoryInterface interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (string, error)
	Set(ctx context.Context, userID uuid.UUID, key, value string) error
	ForUser(userID uuid.UUID) prefs.Backend
}

var _ PreferenceRepositoryInterface = (*PreferenceRepository)(nil)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored JSON value, or prefs.ErrNotFound.
func (r *PreferenceRepository) Get(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	var pref model.ViewPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", prefs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return pref.Value, nil
}

// Set inserts or replaces the value under key.
func (r *PreferenceRepository) Set(ctx context.Context, userID uuid.UUID, key, value string) error {
	pref := model.ViewPreference{UserID: userID, Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// ForUser adapts the repository to a prefs.Backend scoped to one user.
func (r *PreferenceRepository) ForUser(userID uuid.UUID) prefs.Backend {
	return userPreferences{repo: r, userID: userID}
}

type userPreferences struct {
	repo   *PreferenceRepository
	userID uuid.UUID
}

func (u userPreferences) Get(ctx context.Context, key string) (string, error) {
	return u.repo.Get(ctx, u.userID, key)
}

func (u userPreferences) Set(ctx context.Context, key, value string) error {
	return u.repo.Set(ctx, u.userID, key, value)
}
