// Package permission maps participant roles to the capabilities they grant
// on an exchange.
package permission

import (
	"errors"

	"exchangedesk/internal/model"
)

var ErrUnknownRole = errors.New("unknown participant role")

var defaults = map[model.ParticipantRole]model.Permissions{
	model.RoleClient:                {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true},
	model.RoleCoordinator:           {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true, CanEdit: true, CanManage: true},
	model.RoleQualifiedIntermediary: {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true, CanEdit: true},
	model.RoleAttorney:              {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true, CanEdit: true},
	model.RoleCPA:                   {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true},
	model.RoleAgent:                 {CanView: true, CanMessage: true, CanUpload: true, CanDownload: true},
	model.RoleParticipant:           {CanView: true, CanMessage: true, CanDownload: true},
	model.RoleViewer:                {CanView: true},
}

// Defaults returns the permissions a role starts with.
func Defaults(role model.ParticipantRole) (model.Permissions, error) {
	p, ok := defaults[role]
	if !ok {
		return model.Permissions{}, ErrUnknownRole
	}
	return p, nil
}

// Assign sets the participant's role. Permissions are re-derived from the
// new role unless override is non-nil, in which case override is stored as
// given.
func Assign(p *model.Participant, role model.ParticipantRole, override *model.Permissions) error {
	perms, err := Defaults(role)
	if err != nil {
		return err
	}
	if override != nil {
		perms = *override
	}
	p.Role = role
	p.Permissions = perms
	return nil
}

// Action is something a participant may do on an exchange.
type Action string

const (
	View     Action = "view"
	Message  Action = "message"
	Upload   Action = "upload"
	Download Action = "download"
	Edit     Action = "edit"
	Manage   Action = "manage"
)

// Allows reports whether perms grant a. Manage implies every other action
// and Edit implies View.
func Allows(perms model.Permissions, a Action) bool {
	if perms.CanManage {
		return true
	}
	switch a {
	case View:
		return perms.CanView || perms.CanEdit
	case Message:
		return perms.CanMessage
	case Upload:
		return perms.CanUpload
	case Download:
		return perms.CanDownload
	case Edit:
		return perms.CanEdit
	}
	return false
}
