package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
)

// AccessChecker answers whether a user may act on an exchange.
type AccessChecker interface {
	CheckAccess(ctx context.Context, exchangeID, userID uuid.UUID, action permission.Action) (bool, error)
}

type ParticipantRepositoryInterface interface {
	AccessChecker
	Upsert(ctx context.Context, p *model.Participant) error
	GetByID(ctx context.Context, exchangeID, id uuid.UUID) (*model.Participant, error)
	ListByExchange(ctx context.Context, exchangeID uuid.UUID) ([]model.Participant, error)
	Update(ctx context.Context, p *model.Participant) error
	Remove(ctx context.Context, exchangeID, id uuid.UUID) error
}

var _ ParticipantRepositoryInterface = (*ParticipantRepository)(nil)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Upsert adds a participant to an exchange. A participant with the same
// email on the same exchange gets the new role and permissions instead.
func (r *ParticipantRepository) Upsert(ctx context.Context, p *model.Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Participant
		err := tx.Where("exchange_id = ? AND email = ?", p.ExchangeID, p.Email).First(&existing).Error

		if err == nil {
			existing.Name = p.Name
			existing.Role = p.Role
			existing.Permissions = p.Permissions
			if p.UserID != nil {
				existing.UserID = p.UserID
			}
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*p = existing
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(p).Error
	})
}

func (r *ParticipantRepository) GetByID(ctx context.Context, exchangeID, id uuid.UUID) (*model.Participant, error) {
	var p model.Participant
	err := r.db.WithContext(ctx).
		Where("id = ? AND exchange_id = ?", id, exchangeID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) ListByExchange(ctx context.Context, exchangeID uuid.UUID) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.WithContext(ctx).
		Where("exchange_id = ?", exchangeID).
		Order("created_at").
		Find(&participants).Error
	return participants, err
}

func (r *ParticipantRepository) Update(ctx context.Context, p *model.Participant) error {
	result := r.db.WithContext(ctx).Save(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepository) Remove(ctx context.Context, exchangeID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND exchange_id = ?", id, exchangeID).
		Delete(&model.Participant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// CheckAccess reports whether the user may perform action on the exchange.
// The owner may do anything; everyone else needs a participant record whose
// permissions allow it.
func (r *ParticipantRepository) CheckAccess(ctx context.Context, exchangeID, userID uuid.UUID, action permission.Action) (bool, error) {
	var exchange model.Exchange
	err := r.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND owner_id = ?", exchangeID, userID).
		First(&exchange).Error

	if err == nil {
		return true, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var p model.Participant
	err = r.db.WithContext(ctx).
		Where("exchange_id = ? AND user_id = ?", exchangeID, userID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return permission.Allows(p.Permissions, action), nil
}
