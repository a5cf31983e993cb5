package repositories

import (
	"errors"
	"fmt"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"gorm.io/gorm"
)

// VoteRepository defines the interface for vote data operations
type VoteRepository interface {
	CreateVote(vote *models.Vote) error
	GetVote(contributionID string, userID uint) (*models.Vote, error)
	UpdateVoteType(voteID uint, voteType string) error
	DeleteVote(voteID uint) error
	GetVotesByContributionID(contributionID string) ([]models.Vote, error)
	CountVotesByType(contributionID string, voteType string) (int64, error)
}

// PostgresVoteRepository implements VoteRepository for PostgreSQL
type PostgresVoteRepository struct {
	db *gorm.DB
}

// NewPostgresVoteRepository creates a new PostgresVoteRepository
func NewPostgresVoteRepository(db *gorm.DB) *PostgresVoteRepository {
	return &PostgresVoteRepository{db: db}
}

// CreateVote creates a new vote. The unique index on
// (contribution_id, user_id) rejects a concurrent duplicate for the same
// voter, so a race cannot double-create.
func (r *PostgresVoteRepository) CreateVote(vote *models.Vote) error {
	return r.db.Create(vote).Error
}

// GetVote retrieves the voter's vote on a contribution, if any
func (r *PostgresVoteRepository) GetVote(contributionID string, userID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.Where("contribution_id = ? AND user_id = ?", contributionID, userID).First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &vote, nil
}

// UpdateVoteType flips an existing vote's direction
func (r *PostgresVoteRepository) UpdateVoteType(voteID uint, voteType string) error {
	res := r.db.Model(&models.Vote{}).Where("id = ?", voteID).Update("vote_type", voteType)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
	}
	return nil
}

// DeleteVote deletes a vote by ID
func (r *PostgresVoteRepository) DeleteVote(voteID uint) error {
	res := r.db.Delete(&models.Vote{}, voteID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
	}
	return nil
}

// GetVotesByContributionID retrieves all votes for a contribution
func (r *PostgresVoteRepository) GetVotesByContributionID(contributionID string) ([]models.Vote, error) {
	var votes []models.Vote
	if err := r.db.Where("contribution_id = ?", contributionID).Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// CountVotesByType counts the live votes of one direction on a contribution
func (r *PostgresVoteRepository) CountVotesByType(contributionID string, voteType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Vote{}).
		Where("contribution_id = ? AND vote_type = ?", contributionID, voteType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
