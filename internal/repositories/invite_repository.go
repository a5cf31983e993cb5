package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"gorm.io/gorm"
)

// InviteRepository defines the interface for invite data operations
type InviteRepository interface {
	CreateInvite(invite *models.Invite) error
	GetInviteByEmailAndStory(email, storyID string) (*models.Invite, error)
	GetValidInviteByToken(token string) (*models.Invite, error)
	DeleteInvite(id uint) error
}

// PostgresInviteRepository implements InviteRepository for PostgreSQL
type PostgresInviteRepository struct {
	db *gorm.DB
}

// NewPostgresInviteRepository creates a new PostgresInviteRepository
func NewPostgresInviteRepository(db *gorm.DB) *PostgresInviteRepository {
	return &PostgresInviteRepository{db: db}
}

// CreateInvite creates a new invite in PostgreSQL
func (r *PostgresInviteRepository) CreateInvite(invite *models.Invite) error {
	return r.db.Create(invite).Error
}

// GetInviteByEmailAndStory retrieves a pending invite for an email on a story
func (r *PostgresInviteRepository) GetInviteByEmailAndStory(email, storyID string) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.Where("email = ? AND story_id = ?", email, storyID).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invite not found", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &invite, nil
}

// GetValidInviteByToken retrieves an invite by token, rejecting expired ones
func (r *PostgresInviteRepository) GetValidInviteByToken(token string) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.Where("token = ? AND expires_at > ?", token, time.Now()).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired invite token", apperrors.ErrValidation)
		}
		return nil, err
	}
	return &invite, nil
}

// DeleteInvite deletes an invite by ID
func (r *PostgresInviteRepository) DeleteInvite(id uint) error {
	return r.db.Delete(&models.Invite{}, id).Error
}
