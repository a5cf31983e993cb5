package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/realtime"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// VoteHandler handles HTTP requests related to votes
type VoteHandler struct {
	voteRepository         repositories.VoteRepository
	contributionRepository repositories.ContributionRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(
	voteRepo repositories.VoteRepository,
	contributionRepo repositories.ContributionRepository,
	notificationRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *VoteHandler {
	return &VoteHandler{
		voteRepository:         voteRepo,
		contributionRepository: contributionRepo,
		notificationRepository: notificationRepo,
		hub:                    hub,
	}
}

// RegisterVoteRoutes registers the authenticated vote routes
func (h *VoteHandler) RegisterVoteRoutes(g *echo.Group) {
	g.POST("/votes", h.CreateVote)
	g.GET("/votes/user/contribution/:contribution_id", h.GetUserVote)
}

// RegisterPublicVoteRoutes registers the public vote read routes
func (h *VoteHandler) RegisterPublicVoteRoutes(g *echo.Group) {
	g.GET("/votes/contribution/:contribution_id", h.GetContributionVotes)
}

// CreateVote casts, flips or retracts a vote. The transition is keyed on
// whether the voter already holds a vote on the contribution:
//
//	no vote            -> create, count +1
//	same direction     -> delete (toggle off), count -1
//	other direction    -> flip, old count -1, new count +1
func (h *VoteHandler) CreateVote(c echo.Context) error {
	claims := principal(c)

	var req models.CreateVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), req.ContributionID)
	if err != nil {
		return engineError(err)
	}

	existing, err := h.voteRepository.GetVote(req.ContributionID, claims.UserID)
	if err != nil {
		// Absence selects the create branch; a storage failure must not.
		if !errors.Is(err, apperrors.ErrNotFound) {
			return engineError(err)
		}
		existing = nil
	}

	ctx := c.Request().Context()

	if existing != nil {
		if existing.VoteType == req.VoteType {
			// Toggle off: same direction twice removes the vote.
			if err := h.voteRepository.DeleteVote(existing.ID); err != nil {
				return engineError(err)
			}
			if err := h.contributionRepository.IncrementVote(ctx, req.ContributionID, req.VoteType, -1); err != nil {
				return engineError(err)
			}
			applyVoteDelta(&contribution.Votes, req.VoteType, -1)

			return c.JSON(http.StatusOK, echo.Map{
				"message": "Vote removed successfully",
				"votes":   contribution.Votes,
			})
		}

		// Flip direction.
		if err := h.voteRepository.UpdateVoteType(existing.ID, req.VoteType); err != nil {
			return engineError(err)
		}
		if err := h.contributionRepository.IncrementVote(ctx, req.ContributionID, existing.VoteType, -1); err != nil {
			return engineError(err)
		}
		if err := h.contributionRepository.IncrementVote(ctx, req.ContributionID, req.VoteType, 1); err != nil {
			return engineError(err)
		}
		applyVoteDelta(&contribution.Votes, existing.VoteType, -1)
		applyVoteDelta(&contribution.Votes, req.VoteType, 1)
		existing.VoteType = req.VoteType

		return c.JSON(http.StatusOK, echo.Map{
			"message": "Vote updated successfully",
			"vote":    existing,
			"votes":   contribution.Votes,
		})
	}

	vote := &models.Vote{
		ContributionID: req.ContributionID,
		StoryID:        contribution.StoryID.Hex(),
		UserID:         claims.UserID,
		VoteType:       req.VoteType,
	}

	// The unique (contribution_id, user_id) index turns a concurrent
	// duplicate into a constraint error instead of a double-count.
	if err := h.voteRepository.CreateVote(vote); err != nil {
		return echo.NewHTTPError(http.StatusConflict, "Vote already exists for this contribution")
	}

	if err := h.contributionRepository.IncrementVote(ctx, req.ContributionID, req.VoteType, 1); err != nil {
		return engineError(err)
	}
	applyVoteDelta(&contribution.Votes, req.VoteType, 1)

	go h.notifyVote(contribution, claims.UserID)
	h.hub.Publish(realtime.Event{
		Type:    realtime.EventVoteAdded,
		StoryID: contribution.StoryID.Hex(),
		Payload: vote,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Vote added successfully",
		"vote":    vote,
		"votes":   contribution.Votes,
	})
}

func applyVoteDelta(counts *models.VoteCounts, voteType string, delta int) {
	if voteType == models.VoteTypeDownvote {
		counts.Downvotes += delta
	} else {
		counts.Upvotes += delta
	}
}

func (h *VoteHandler) notifyVote(contribution *models.Contribution, senderID uint) {
	if contribution.UserID == senderID {
		return
	}
	notification := &models.Notification{
		Type:           models.NotificationTypeVote,
		SenderID:       senderID,
		RecipientID:    contribution.UserID,
		StoryID:        contribution.StoryID.Hex(),
		ContributionID: contribution.ID.Hex(),
		Message:        "Your contribution received a vote",
	}
	if err := h.notificationRepository.CreateNotification(notification); err != nil {
		log.Printf("Failed to create vote notification: %v", err)
	}
}

// GetContributionVotes lists a contribution's votes with the counter summary
func (h *VoteHandler) GetContributionVotes(c echo.Context) error {
	contributionID := c.Param("contribution_id")

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), contributionID)
	if err != nil {
		return engineError(err)
	}

	votes, err := h.voteRepository.GetVotesByContributionID(contributionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch votes")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"votes": votes,
		"summary": echo.Map{
			"upvotes":   contribution.Votes.Upvotes,
			"downvotes": contribution.Votes.Downvotes,
			"total":     contribution.Votes.Upvotes - contribution.Votes.Downvotes,
		},
	})
}

// GetUserVote returns the caller's vote on a contribution, or null
func (h *VoteHandler) GetUserVote(c echo.Context) error {
	claims := principal(c)
	contributionID := c.Param("contribution_id")

	if _, err := h.contributionRepository.GetContributionByID(c.Request().Context(), contributionID); err != nil {
		return engineError(err)
	}

	vote, err := h.voteRepository.GetVote(contributionID, claims.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return engineError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"vote": nil})
	}

	return c.JSON(http.StatusOK, echo.Map{"vote": vote})
}
