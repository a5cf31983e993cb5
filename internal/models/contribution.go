package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution statuses
const (
	ContributionStatusPending  = "pending"
	ContributionStatusApproved = "approved"
	ContributionStatusRejected = "rejected"
	ContributionStatusDraft    = "draft"
)

// Contribution represents a story continuation stored in MongoDB
type Contribution struct {
	ID         primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	StoryID    primitive.ObjectID  `json:"story_id" bson:"story_id"`
	UserID     uint                `json:"user_id" bson:"user_id"`
	Content    string              `json:"content" bson:"content"`
	Status     string              `json:"status" bson:"status"`
	Position   int                 `json:"position" bson:"position"` // append sequence per story, never renumbered
	ParentID   *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	IsSelected bool                `json:"is_selected" bson:"is_selected"`
	Votes      VoteCounts          `json:"votes" bson:"votes"`
	Comments   []Comment           `json:"comments" bson:"comments"`
	Author     *Author             `json:"author,omitempty" bson:"-"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
}

// VoteCounts holds the denormalized vote tallies for a contribution
type VoteCounts struct {
	Upvotes   int `json:"upvotes" bson:"upvotes"`
	Downvotes int `json:"downvotes" bson:"downvotes"`
}

// Comment is a reader comment embedded in a contribution, append-only
type Comment struct {
	UserID    uint      `json:"user_id" bson:"user_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Author    *Author   `json:"author,omitempty" bson:"-"`
}

// CreateContributionRequest defines the request body for submitting a contribution
type CreateContributionRequest struct {
	StoryID  string `json:"story_id" validate:"required"`
	Content  string `json:"content" validate:"required,min=10,max=5000"`
	ParentID string `json:"parent_id,omitempty"`
}

// UpdateContributionRequest defines the request body for updating a contribution
type UpdateContributionRequest struct {
	Content string `json:"content,omitempty" validate:"omitempty,min=10,max=5000"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected draft"`
}

// AddCommentRequest defines the request body for commenting on a contribution
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}
