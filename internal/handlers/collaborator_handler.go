package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const inviteTTL = 7 * 24 * time.Hour

// CollaboratorHandler handles HTTP requests related to story collaborators
type CollaboratorHandler struct {
	storyRepository  repositories.StoryRepository
	userRepository   repositories.UserRepository
	inviteRepository repositories.InviteRepository
}

// NewCollaboratorHandler creates a new CollaboratorHandler
func NewCollaboratorHandler(
	storyRepo repositories.StoryRepository,
	userRepo repositories.UserRepository,
	inviteRepo repositories.InviteRepository,
) *CollaboratorHandler {
	return &CollaboratorHandler{
		storyRepository:  storyRepo,
		userRepository:   userRepo,
		inviteRepository: inviteRepo,
	}
}

// RegisterCollaboratorRoutes registers the authenticated collaborator routes
func (h *CollaboratorHandler) RegisterCollaboratorRoutes(g *echo.Group) {
	g.POST("/collaborators/invite", h.InviteCollaborator)
	g.POST("/collaborators/accept", h.AcceptInvite)
	g.GET("/collaborators/story/:story_id", h.GetCollaborators)
	g.DELETE("/collaborators/story/:story_id/user/:user_id", h.RemoveCollaborator)
	g.PUT("/collaborators/story/:story_id/user/:user_id", h.UpdateCollaboratorRole)
}

// InviteCollaborator issues an invite token for an email address
func (h *CollaboratorHandler) InviteCollaborator(c echo.Context) error {
	claims := principal(c)

	var req models.InviteCollaboratorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), req.StoryID)
	if err != nil {
		return engineError(err)
	}

	// Only the creator, an editor collaborator or an admin may invite.
	isEditor := false
	for _, collaborator := range story.Collaborators {
		if collaborator.UserID == claims.UserID && collaborator.Role == models.CollaboratorRoleEditor {
			isEditor = true
			break
		}
	}
	if claims.UserID != story.CreatorID && !isEditor && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to invite collaborators", apperrors.ErrPermission))
	}

	if invited, err := h.userRepository.GetUserByEmail(req.Email); err == nil {
		if story.HasCollaborator(invited.ID) {
			return engineError(fmt.Errorf("%w: user is already a collaborator", apperrors.ErrValidation))
		}
		if story.CreatorID == invited.ID {
			return engineError(fmt.Errorf("%w: user is the creator of the story", apperrors.ErrValidation))
		}
	}

	if _, err := h.inviteRepository.GetInviteByEmailAndStory(req.Email, req.StoryID); err == nil {
		return engineError(fmt.Errorf("%w: invite already sent to this email", apperrors.ErrValidation))
	}

	token, err := inviteToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate invite token")
	}

	role := req.Role
	if role == "" {
		role = models.CollaboratorRoleContributor
	}

	invite := &models.Invite{
		Email:     req.Email,
		StoryID:   req.StoryID,
		InvitedBy: claims.UserID,
		Role:      role,
		Token:     token,
		ExpiresAt: time.Now().Add(inviteTTL),
	}

	if err := h.inviteRepository.CreateInvite(invite); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create invite")
	}

	// Email delivery is out of scope; the token is returned for the caller
	// to distribute.
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Invite sent successfully",
		"invite": echo.Map{
			"email": invite.Email,
			"role":  invite.Role,
			"token": invite.Token,
		},
	})
}

func inviteToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// AcceptInvite redeems an invite token for the logged-in user
func (h *CollaboratorHandler) AcceptInvite(c echo.Context) error {
	claims := principal(c)

	var req models.AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invite, err := h.inviteRepository.GetValidInviteByToken(req.Token)
	if err != nil {
		return engineError(err)
	}

	if claims.Email != invite.Email {
		return engineError(fmt.Errorf("%w: this invite is for a different email address", apperrors.ErrPermission))
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), invite.StoryID)
	if err != nil {
		return engineError(err)
	}

	if !story.HasCollaborator(claims.UserID) {
		collaborator := models.Collaborator{UserID: claims.UserID, Role: invite.Role}
		if err := h.storyRepository.AddCollaborator(c.Request().Context(), invite.StoryID, collaborator); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add collaborator")
		}
	}

	if err := h.inviteRepository.DeleteInvite(invite.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to consume invite")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Invite accepted successfully",
		"story_id": story.ID.Hex(),
	})
}

// GetCollaborators lists a story's creator and collaborators
func (h *CollaboratorHandler) GetCollaborators(c echo.Context) error {
	claims := principal(c)

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("story_id"))
	if err != nil {
		return engineError(err)
	}

	if err := checkStoryVisibility(story, claims); err != nil {
		return engineError(err)
	}

	ids := []uint{story.CreatorID}
	for _, collaborator := range story.Collaborators {
		ids = append(ids, collaborator.UserID)
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch collaborators")
	}
	byID := make(map[uint]*models.Author, len(users))
	for i := range users {
		byID[users[i].ID] = &models.Author{ID: users[i].ID, Username: users[i].Username, Avatar: users[i].Avatar}
	}

	type collaboratorView struct {
		User *models.Author `json:"user"`
		Role string         `json:"role"`
	}
	collaborators := make([]collaboratorView, 0, len(story.Collaborators))
	for _, collaborator := range story.Collaborators {
		collaborators = append(collaborators, collaboratorView{
			User: byID[collaborator.UserID],
			Role: collaborator.Role,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"creator":       byID[story.CreatorID],
		"collaborators": collaborators,
	})
}

// RemoveCollaborator removes a collaborator; the creator and admins may
// remove anyone, a collaborator may remove themself (leave the story)
func (h *CollaboratorHandler) RemoveCollaborator(c echo.Context) error {
	claims := principal(c)

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("story_id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != story.CreatorID && !claims.IsAdmin() && claims.UserID != uint(userID) {
		return engineError(fmt.Errorf("%w: you do not have permission to remove collaborators", apperrors.ErrPermission))
	}

	if err := h.storyRepository.RemoveCollaborator(c.Request().Context(), c.Param("story_id"), uint(userID)); err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Collaborator removed successfully"})
}

// UpdateCollaboratorRole changes a collaborator's role; creator or admin only
func (h *CollaboratorHandler) UpdateCollaboratorRole(c echo.Context) error {
	claims := principal(c)

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	var req models.UpdateCollaboratorRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("story_id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != story.CreatorID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to update collaborator roles", apperrors.ErrPermission))
	}

	if err := h.storyRepository.UpdateCollaboratorRole(c.Request().Context(), c.Param("story_id"), uint(userID), req.Role); err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Collaborator role updated successfully"})
}
