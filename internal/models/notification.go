package models

import "time"

// Notification types
const (
	NotificationTypeContribution = "contribution"
	NotificationTypeVote         = "vote"
	NotificationTypeComment      = "comment"
	NotificationTypeFollow       = "follow"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Type           string    `json:"type" gorm:"size:30;index"` // contribution, vote, comment, follow
	SenderID       uint      `json:"sender_id" gorm:"index"`
	RecipientID    uint      `json:"recipient_id" gorm:"index"`
	StoryID        string    `json:"story_id,omitempty"`        // MongoDB ObjectID as string
	ContributionID string    `json:"contribution_id,omitempty"` // MongoDB ObjectID as string
	Message        string    `json:"message"`
	IsRead         bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}
