package model

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleClient                ParticipantRole = "client"
	RoleCoordinator           ParticipantRole = "coordinator"
	RoleQualifiedIntermediary ParticipantRole = "qualified_intermediary"
	RoleAttorney              ParticipantRole = "attorney"
	RoleCPA                   ParticipantRole = "cpa"
	RoleAgent                 ParticipantRole = "agent"
	RoleParticipant           ParticipantRole = "participant"
	RoleViewer                ParticipantRole = "viewer"
)

var ParticipantRoles = []ParticipantRole{
	RoleClient, RoleCoordinator, RoleQualifiedIntermediary, RoleAttorney,
	RoleCPA, RoleAgent, RoleParticipant, RoleViewer,
}

func (r ParticipantRole) Valid() bool {
	for _, v := range ParticipantRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Permissions are stored alongside the role; they start from the role's
// defaults and can be overridden per participant.
type Permissions struct {
	CanView     bool `json:"can_view"`
	CanMessage  bool `json:"can_message"`
	CanUpload   bool `json:"can_upload"`
	CanDownload bool `json:"can_download"`
	CanEdit     bool `json:"can_edit"`
	CanManage   bool `json:"can_manage"`
}

type Participant struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExchangeID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"exchange_id"`
	UserID      *uuid.UUID      `gorm:"type:uuid" json:"user_id,omitempty"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        ParticipantRole `gorm:"type:varchar(32);not null" json:"role"`
	Permissions `gorm:"embedded"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
