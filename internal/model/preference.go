package model

import (
	"time"

	"github.com/google/uuid"
)

// ViewPreference is a namespaced JSON value persisted per user.
type ViewPreference struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
