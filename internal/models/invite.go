package models

import "time"

// Invite represents a pending collaboration invite (PostgreSQL).
// One outstanding invite per (email, story). No DeletedAt: a consumed
// invite must free its unique slot so the email can be invited again.
type Invite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex:idx_invite_email_story"`
	StoryID   string    `json:"story_id" gorm:"uniqueIndex:idx_invite_email_story"` // MongoDB ObjectID as string
	InvitedBy uint      `json:"invited_by"`
	Role      string    `json:"role" gorm:"size:15;default:contributor"`
	Token     string    `json:"token" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteCollaboratorRequest defines the request body for inviting a collaborator
type InviteCollaboratorRequest struct {
	StoryID string `json:"story_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role,omitempty" validate:"omitempty,oneof=editor contributor viewer"`
}

// AcceptInviteRequest defines the request body for accepting an invite
type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// UpdateCollaboratorRoleRequest defines the request body for changing a collaborator's role
type UpdateCollaboratorRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=editor contributor viewer"`
}
