package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story statuses
const (
	StoryStatusActive    = "active"
	StoryStatusCompleted = "completed"
	StoryStatusArchived  = "archived"
)

// Collaborator roles
const (
	CollaboratorRoleEditor      = "editor"
	CollaboratorRoleContributor = "contributor"
	CollaboratorRoleViewer      = "viewer"
)

// Story represents a collaborative story stored in MongoDB
type Story struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title                 string             `json:"title" bson:"title"`
	Description           string             `json:"description" bson:"description"`
	Genre                 string             `json:"genre" bson:"genre"`
	Tags                  []string           `json:"tags" bson:"tags"`
	CreatorID             uint               `json:"creator_id" bson:"creator_id"`
	Contributors          []uint             `json:"contributors" bson:"contributors"` // distinct user ids who have contributed
	Collaborators         []Collaborator     `json:"collaborators,omitempty" bson:"collaborators,omitempty"`
	Status                string             `json:"status" bson:"status"`
	IsPrivate             bool               `json:"is_private" bson:"is_private"`
	MaxContributors       int                `json:"max_contributors" bson:"max_contributors"`                 // 0 means unlimited
	ContributionTimeLimit int                `json:"contribution_time_limit" bson:"contribution_time_limit"`   // hours, 0 means no limit
	CoverImage            string             `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	Views                 int                `json:"views" bson:"views"`
	Likes                 int                `json:"likes" bson:"likes"`
	CreatedAt             time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" bson:"updated_at"`
}

// Collaborator links an invited user to a story with a role
type Collaborator struct {
	UserID uint   `json:"user_id" bson:"user_id"`
	Role   string `json:"role" bson:"role"`
}

// HasContributor reports whether userID is already among the story's contributors.
func (s *Story) HasContributor(userID uint) bool {
	for _, id := range s.Contributors {
		if id == userID {
			return true
		}
	}
	return false
}

// HasCollaborator reports whether userID was added through an invite.
func (s *Story) HasCollaborator(userID uint) bool {
	for _, c := range s.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// CreateStoryRequest defines the request body for creating a new story
type CreateStoryRequest struct {
	Title                 string   `json:"title" validate:"required,min=3,max=100"`
	Description           string   `json:"description" validate:"required,max=500"`
	Genre                 string   `json:"genre" validate:"required,oneof=Fantasy 'Science Fiction' Mystery Horror Romance Adventure Thriller 'Historical Fiction' Comedy Drama Other"`
	Tags                  []string `json:"tags,omitempty"`
	IsPrivate             bool     `json:"is_private,omitempty"`
	MaxContributors       int      `json:"max_contributors,omitempty" validate:"omitempty,min=0"`
	ContributionTimeLimit int      `json:"contribution_time_limit,omitempty" validate:"omitempty,min=0"`
	CoverImage            string   `json:"cover_image,omitempty" validate:"omitempty,url"`
}

// UpdateStoryRequest defines the request body for updating an existing story
type UpdateStoryRequest struct {
	Title                 *string  `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description           *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Genre                 *string  `json:"genre,omitempty" validate:"omitempty,oneof=Fantasy 'Science Fiction' Mystery Horror Romance Adventure Thriller 'Historical Fiction' Comedy Drama Other"`
	Tags                  []string `json:"tags,omitempty"`
	IsPrivate             *bool    `json:"is_private,omitempty"`
	MaxContributors       *int     `json:"max_contributors,omitempty" validate:"omitempty,min=0"`
	ContributionTimeLimit *int     `json:"contribution_time_limit,omitempty" validate:"omitempty,min=0"`
	Status                *string  `json:"status,omitempty" validate:"omitempty,oneof=active completed archived"`
	CoverImage            *string  `json:"cover_image,omitempty" validate:"omitempty,url"`
}
