package models

import "time"

// Vote types
const (
	VoteTypeUpvote   = "upvote"
	VoteTypeDownvote = "downvote"
)

// Vote represents a user's vote on a contribution (PostgreSQL).
// The unique index guarantees at most one vote per (contribution, user).
// No DeletedAt: a removed vote must free its unique slot so the voter can
// vote on the contribution again.
type Vote struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ContributionID string    `json:"contribution_id" gorm:"index;uniqueIndex:idx_contribution_voter"` // MongoDB ObjectID as string
	StoryID        string    `json:"story_id" gorm:"index"`
	UserID         uint      `json:"user_id" gorm:"uniqueIndex:idx_contribution_voter"`
	VoteType       string    `json:"vote_type" gorm:"size:10"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateVoteRequest defines the request body for casting a vote
type CreateVoteRequest struct {
	ContributionID string `json:"contribution_id" validate:"required"`
	VoteType       string `json:"vote_type" validate:"required,oneof=upvote downvote"`
}
