package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/realtime"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// contributionSortFields whitelists the sortable fields for listings
var contributionSortFields = map[string]string{
	"position":   "position",
	"created_at": "created_at",
	"upvotes":    "votes.upvotes",
}

// ContributionHandler handles HTTP requests related to contributions
type ContributionHandler struct {
	contributionRepository repositories.ContributionRepository
	storyRepository        repositories.StoryRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	hub                    *realtime.Hub
}

// NewContributionHandler creates a new ContributionHandler
func NewContributionHandler(
	contributionRepo repositories.ContributionRepository,
	storyRepo repositories.StoryRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	hub *realtime.Hub,
) *ContributionHandler {
	return &ContributionHandler{
		contributionRepository: contributionRepo,
		storyRepository:        storyRepo,
		userRepository:         userRepo,
		notificationRepository: notificationRepo,
		hub:                    hub,
	}
}

// RegisterContributionRoutes registers the authenticated contribution routes
func (h *ContributionHandler) RegisterContributionRoutes(g *echo.Group) {
	g.POST("/contributions", h.CreateContribution)
	g.PUT("/contributions/:id", h.UpdateContribution)
	g.DELETE("/contributions/:id", h.DeleteContribution)
	g.POST("/contributions/:id/comments", h.AddComment)
	g.POST("/contributions/:id/select", h.SelectContribution)
}

// RegisterPublicContributionRoutes registers the read routes that allow
// anonymous access, subject to private-story checks.
func (h *ContributionHandler) RegisterPublicContributionRoutes(g *echo.Group) {
	g.GET("/contributions/story/:story_id", h.GetStoryContributions)
	g.GET("/contributions/:id", h.GetContributionByID)
}

// CreateContribution submits a new story continuation
func (h *ContributionHandler) CreateContribution(c echo.Context) error {
	claims := principal(c)

	var req models.CreateContributionRequest
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

	if story.Status != models.StoryStatusActive {
		return engineError(fmt.Errorf("%w: cannot contribute to a completed or archived story", apperrors.ErrInvalidState))
	}

	// A first-time contributor cannot join once the distinct contributor
	// limit is reached; existing contributors may keep contributing.
	if story.MaxContributors > 0 &&
		len(story.Contributors) >= story.MaxContributors &&
		!story.HasContributor(claims.UserID) {
		return engineError(fmt.Errorf("%w: maximum number of contributors reached for this story", apperrors.ErrCapacity))
	}

	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid parent contribution ID")
		}
		parentID = &parsed
	}

	maxPosition, err := h.contributionRepository.GetMaxPosition(c.Request().Context(), req.StoryID)
	if err != nil {
		return engineError(err)
	}

	contribution := &models.Contribution{
		StoryID:  story.ID,
		UserID:   claims.UserID,
		Content:  req.Content,
		Status:   models.ContributionStatusPending,
		Position: maxPosition + 1,
		ParentID: parentID,
		Votes:    models.VoteCounts{},
		Comments: []models.Comment{},
	}

	if err := h.contributionRepository.CreateContribution(c.Request().Context(), contribution); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create contribution")
	}

	if !story.HasContributor(claims.UserID) {
		if err := h.storyRepository.AddContributor(c.Request().Context(), req.StoryID, claims.UserID); err != nil {
			log.Printf("Failed to add contributor %d to story %s: %v", claims.UserID, req.StoryID, err)
		}
	}

	if author, err := h.userRepository.GetUserByID(claims.UserID); err == nil {
		contribution.Author = &models.Author{ID: author.ID, Username: author.Username, Avatar: author.Avatar}
	}

	// Fan-out is fire-and-forget; its failure never rolls back the submission.
	go h.notifyContribution(story, contribution)
	h.hub.Publish(realtime.Event{
		Type:    realtime.EventContributionAdded,
		StoryID: req.StoryID,
		Payload: contribution,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Contribution added successfully",
		"contribution": contribution,
	})
}

func (h *ContributionHandler) notifyContribution(story *models.Story, contribution *models.Contribution) {
	if story.CreatorID == contribution.UserID {
		return
	}
	notification := &models.Notification{
		Type:           models.NotificationTypeContribution,
		SenderID:       contribution.UserID,
		RecipientID:    story.CreatorID,
		StoryID:        story.ID.Hex(),
		ContributionID: contribution.ID.Hex(),
		Message:        fmt.Sprintf("New contribution on %q", story.Title),
	}
	if err := h.notificationRepository.CreateNotification(notification); err != nil {
		log.Printf("Failed to create contribution notification: %v", err)
	}
}

// GetStoryContributions lists a story's contributions, sorted
func (h *ContributionHandler) GetStoryContributions(c echo.Context) error {
	storyID := c.Param("story_id")

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), storyID)
	if err != nil {
		return engineError(err)
	}

	if err := checkStoryVisibility(story, principal(c)); err != nil {
		return engineError(err)
	}

	sortField, ok := contributionSortFields[c.QueryParam("sort")]
	if !ok {
		sortField = "position"
	}
	ascending := c.QueryParam("order") != "desc"

	contributions, err := h.contributionRepository.GetContributionsByStoryID(c.Request().Context(), storyID, sortField, ascending)
	if err != nil {
		return engineError(err)
	}

	h.attachAuthors(contributions)

	return c.JSON(http.StatusOK, echo.Map{"contributions": contributions})
}

// attachAuthors denormalizes author profiles onto contributions for display
func (h *ContributionHandler) attachAuthors(contributions []models.Contribution) {
	idSet := make(map[uint]struct{})
	for _, contribution := range contributions {
		idSet[contribution.UserID] = struct{}{}
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		log.Printf("Failed to load contribution authors: %v", err)
		return
	}
	byID := make(map[uint]*models.Author, len(users))
	for i := range users {
		byID[users[i].ID] = &models.Author{ID: users[i].ID, Username: users[i].Username, Avatar: users[i].Avatar}
	}
	for i := range contributions {
		contributions[i].Author = byID[contributions[i].UserID]
	}
}

// GetContributionByID retrieves a single contribution
func (h *ContributionHandler) GetContributionByID(c echo.Context) error {
	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), contribution.StoryID.Hex())
	if err != nil {
		return engineError(err)
	}

	if err := checkStoryVisibility(story, principal(c)); err != nil {
		return engineError(err)
	}

	if author, err := h.userRepository.GetUserByID(contribution.UserID); err == nil {
		contribution.Author = &models.Author{ID: author.ID, Username: author.Username, Avatar: author.Avatar}
	}

	return c.JSON(http.StatusOK, echo.Map{"contribution": contribution})
}

// UpdateContribution edits a contribution's content, or its status for admins
func (h *ContributionHandler) UpdateContribution(c echo.Context) error {
	claims := principal(c)

	var req models.UpdateContributionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != contribution.UserID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to update this contribution", apperrors.ErrPermission))
	}

	fields := bson.M{}
	if req.Content != "" {
		fields["content"] = req.Content
		contribution.Content = req.Content
	}
	if req.Status != "" && claims.IsAdmin() {
		fields["status"] = req.Status
		contribution.Status = req.Status
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"contribution": contribution})
	}

	if err := h.contributionRepository.UpdateContribution(c.Request().Context(), c.Param("id"), fields); err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Contribution updated successfully",
		"contribution": contribution,
	})
}

// DeleteContribution removes a contribution. Votes referencing it are left
// in place and sibling positions are not renumbered.
func (h *ContributionHandler) DeleteContribution(c echo.Context) error {
	claims := principal(c)

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != contribution.UserID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to delete this contribution", apperrors.ErrPermission))
	}

	if err := h.contributionRepository.DeleteContribution(c.Request().Context(), c.Param("id")); err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Contribution deleted successfully"})
}

// AddComment appends a comment to a contribution. Comments stay allowed
// after a story completes or is archived.
func (h *ContributionHandler) AddComment(c echo.Context) error {
	claims := principal(c)

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return engineError(fmt.Errorf("%w: comment text is required", apperrors.ErrValidation))
	}
	if utf8.RuneCountInString(text) > 500 {
		return engineError(fmt.Errorf("%w: comment cannot exceed 500 characters", apperrors.ErrValidation))
	}

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	comment := models.Comment{
		UserID:    claims.UserID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := h.contributionRepository.AddComment(c.Request().Context(), c.Param("id"), comment); err != nil {
		return engineError(err)
	}

	if author, err := h.userRepository.GetUserByID(claims.UserID); err == nil {
		comment.Author = &models.Author{ID: author.ID, Username: author.Username, Avatar: author.Avatar}
	}

	go h.notifyComment(contribution, claims.UserID)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

func (h *ContributionHandler) notifyComment(contribution *models.Contribution, senderID uint) {
	if contribution.UserID == senderID {
		return
	}
	notification := &models.Notification{
		Type:           models.NotificationTypeComment,
		SenderID:       senderID,
		RecipientID:    contribution.UserID,
		StoryID:        contribution.StoryID.Hex(),
		ContributionID: contribution.ID.Hex(),
		Message:        "New comment on your contribution",
	}
	if err := h.notificationRepository.CreateNotification(notification); err != nil {
		log.Printf("Failed to create comment notification: %v", err)
	}
}

// SelectContribution marks a contribution as the canonical continuation at
// its position. Any sibling at the same position is unselected first so at
// most one contribution per (story, position) stays selected.
func (h *ContributionHandler) SelectContribution(c echo.Context) error {
	claims := principal(c)

	contribution, err := h.contributionRepository.GetContributionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), contribution.StoryID.Hex())
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != story.CreatorID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: only the story creator can select contributions for the main storyline", apperrors.ErrPermission))
	}

	ctx := c.Request().Context()
	if err := h.contributionRepository.UnselectSiblings(ctx, story.ID.Hex(), contribution.Position, c.Param("id")); err != nil {
		return engineError(err)
	}
	if err := h.contributionRepository.MarkSelected(ctx, c.Param("id")); err != nil {
		return engineError(err)
	}

	contribution.IsSelected = true
	contribution.Status = models.ContributionStatusApproved

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Contribution selected for the main storyline",
		"contribution": contribution,
	})
}

// checkStoryVisibility enforces the private-story read rule: only the
// creator, a collaborator or an admin may read a private story.
func checkStoryVisibility(story *models.Story, claims *models.JwtCustomClaims) error {
	if !story.IsPrivate {
		return nil
	}
	if claims != nil && (claims.UserID == story.CreatorID || claims.IsAdmin() || story.HasCollaborator(claims.UserID)) {
		return nil
	}
	return fmt.Errorf("%w: you do not have permission to view this story", apperrors.ErrPermission)
}
