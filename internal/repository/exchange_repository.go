package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"exchangedesk/internal/model"
)

type ExchangeRepositoryInterface interface {
	Create(ctx context.Context, exchange *model.Exchange) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exchange, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Exchange, error)
	Update(ctx context.Context, exchange *model.Exchange) error
}

var _ ExchangeRepositoryInterface = (*ExchangeRepository)(nil)

type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// Create inserts the exchange and its property records
func (r *ExchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	return r.db.WithContext(ctx).Omit("Participants").Create(exchange).Error
}

// GetByID retrieves an exchange with its properties and participants
func (r *ExchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exchange, error) {
	var exchange model.Exchange
	err := r.db.WithContext(ctx).
		Preload("Properties").
		Preload("Participants").
		First(&exchange, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExchangeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &exchange, nil
}

// ListForUser returns the exchanges the user owns or participates in
func (r *ExchangeRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Exchange, error) {
	db := r.db.WithContext(ctx)
	joined := db.Model(&model.Participant{}).Select("exchange_id").Where("user_id = ?", userID)

	var exchanges []model.Exchange
	err := db.
		Where("owner_id = ? OR id IN (?)", userID, joined).
		Order("created_at DESC").
		Find(&exchanges).Error
	return exchanges, err
}

// Update saves the exchange's own columns; properties and participants
// are managed separately.
func (r *ExchangeRepository) Update(ctx context.Context, exchange *model.Exchange) error {
	result := r.db.WithContext(ctx).
		Model(exchange).
		Select("name", "status", "start_date", "identification_deadline", "completion_deadline",
			"relinquished_value", "replacement_value", "updated_at").
		Updates(exchange)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrExchangeNotFound
	}
	return nil
}
