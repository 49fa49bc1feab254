package session

import (
	"github.com/codesync/codesync/pkg/api"
	"github.com/codesync/codesync/pkg/com"
)

// Participant is one room member. The UserID is stable across
// reconnects, the ConnID changes with every new connection.
type Participant struct {
	UserID string
	ConnID com.Uid
	Name   string
	Role   api.Role
}

// Colors are presentation only and deterministic per role, so
// every client renders the same pair the same way.
const (
	ownerColor  = "#f97316"
	editorColor = "#3b82f6"
)

func roleColor(role api.Role) string {
	if role == api.RoleOwner {
		return ownerColor
	}
	return editorColor
}

// Public returns the wire representation of the participant.
func (p *Participant) Public() api.Participant {
	return api.Participant{
		UserID: p.UserID,
		ConnID: p.ConnID.String(),
		Name:   p.Name,
		Role:   p.Role,
		Color:  roleColor(p.Role),
	}
}
