package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// IdentificationPeriodDays is the window for naming replacement property.
	IdentificationPeriodDays = 45
	// ExchangePeriodDays is the window for closing on replacement property.
	ExchangePeriodDays = 180
)

type ExchangeStatus string

const (
	ExchangePending        ExchangeStatus = "PENDING"
	ExchangeActive         ExchangeStatus = "ACTIVE"
	ExchangeIdentification ExchangeStatus = "IDENTIFICATION"
	ExchangeClosing        ExchangeStatus = "CLOSING"
	ExchangeCompleted      ExchangeStatus = "COMPLETED"
	ExchangeCancelled      ExchangeStatus = "CANCELLED"
)

type Exchange struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name                   string         `gorm:"not null" json:"name"`
	Status                 ExchangeStatus `gorm:"type:varchar(16)" json:"status,omitempty"`
	StartDate              *time.Time     `json:"start_date,omitempty"`
	IdentificationDeadline *time.Time     `json:"identification_deadline,omitempty"`
	CompletionDeadline     *time.Time     `json:"completion_deadline,omitempty"`
	RelinquishedValue      int64          `json:"relinquished_value_cents"`
	ReplacementValue       int64          `json:"replacement_value_cents"`
	OwnerID                uuid.UUID      `gorm:"type:uuid;not null" json:"owner_id"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`

	Properties   []ExchangeProperty `gorm:"foreignKey:ExchangeID" json:"properties,omitempty"`
	Participants []Participant      `gorm:"foreignKey:ExchangeID" json:"participants,omitempty"`
}

type PropertyKind string

const (
	PropertyRelinquished PropertyKind = "relinquished"
	PropertyReplacement  PropertyKind = "replacement"
)

type ExchangeProperty struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExchangeID uuid.UUID    `gorm:"type:uuid;not null;index" json:"exchange_id"`
	Kind       PropertyKind `gorm:"type:varchar(16);not null" json:"kind"`
	Address    string       `json:"address"`
	Value      int64        `json:"value_cents"`
	ClosedAt   *time.Time   `json:"closed_at,omitempty"`
}
