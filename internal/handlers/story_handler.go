package handlers

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/realtime"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// storySortFields whitelists the sortable fields for story listings
var storySortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"views":      "views",
	"likes":      "likes",
	"title":      "title",
}

// StoryHandler handles HTTP requests related to stories
type StoryHandler struct {
	storyRepository        repositories.StoryRepository
	contributionRepository repositories.ContributionRepository
	userRepository         repositories.UserRepository
	hub                    *realtime.Hub
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(
	storyRepo repositories.StoryRepository,
	contributionRepo repositories.ContributionRepository,
	userRepo repositories.UserRepository,
	hub *realtime.Hub,
) *StoryHandler {
	return &StoryHandler{
		storyRepository:        storyRepo,
		contributionRepository: contributionRepo,
		userRepository:         userRepo,
		hub:                    hub,
	}
}

// RegisterStoryRoutes registers the authenticated story routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.PUT("/stories/:id", h.UpdateStory)
	g.DELETE("/stories/:id", h.DeleteStory)
	g.POST("/stories/:id/like", h.LikeStory)
	g.POST("/stories/:id/join", h.JoinStoryRoom)
	g.POST("/stories/:id/leave", h.LeaveStoryRoom)
}

// RegisterPublicStoryRoutes registers the story read routes
func (h *StoryHandler) RegisterPublicStoryRoutes(g *echo.Group) {
	g.GET("/stories", h.GetStories)
	g.GET("/stories/stats", h.GetStats)
	g.GET("/stories/:id", h.GetStoryByID)
	g.GET("/stories/:id/presence", h.GetPresence)
}

// CreateStory creates a new story with the caller as creator and first
// contributor
func (h *StoryHandler) CreateStory(c echo.Context) error {
	claims := principal(c)

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story := &models.Story{
		Title:                 req.Title,
		Description:           req.Description,
		Genre:                 req.Genre,
		Tags:                  req.Tags,
		CreatorID:             claims.UserID,
		Contributors:          []uint{claims.UserID},
		Status:                models.StoryStatusActive,
		IsPrivate:             req.IsPrivate,
		MaxContributors:       req.MaxContributors,
		ContributionTimeLimit: req.ContributionTimeLimit,
		CoverImage:            req.CoverImage,
	}

	if err := h.storyRepository.CreateStory(c.Request().Context(), story); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create story")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Story created successfully",
		"story":   story,
	})
}

// GetStories lists stories with pagination, filters and sorting. Private
// stories are hidden from everyone but admins.
func (h *StoryHandler) GetStories(c echo.Context) error {
	claims := principal(c)

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	filter := repositories.StoryFilter{
		Genre:          c.QueryParam("genre"),
		Status:         c.QueryParam("status"),
		IncludePrivate: claims != nil && claims.IsAdmin(),
	}

	sortField, ok := storySortFields[c.QueryParam("sort")]
	if !ok {
		sortField = "created_at"
	}
	ascending := c.QueryParam("order") == "asc"

	skip := int64((page - 1) * limit)
	stories, err := h.storyRepository.GetStories(c.Request().Context(), filter, skip, int64(limit), sortField, ascending)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch stories")
	}

	total, err := h.storyRepository.CountStories(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count stories")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"stories": stories,
		"pagination": echo.Map{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// GetStoryByID retrieves a story and counts the view
func (h *StoryHandler) GetStoryByID(c echo.Context) error {
	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	if err := checkStoryVisibility(story, principal(c)); err != nil {
		return engineError(err)
	}

	if err := h.storyRepository.IncrementViews(c.Request().Context(), c.Param("id")); err != nil {
		log.Printf("Failed to increment views for story %s: %v", c.Param("id"), err)
	} else {
		story.Views++
	}

	return c.JSON(http.StatusOK, echo.Map{"story": story})
}

// UpdateStory edits story fields; creator or admin only
func (h *StoryHandler) UpdateStory(c echo.Context) error {
	claims := principal(c)

	var req models.UpdateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != story.CreatorID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to update this story", apperrors.ErrPermission))
	}

	fields := bson.M{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Genre != nil {
		fields["genre"] = *req.Genre
	}
	if req.Tags != nil {
		fields["tags"] = req.Tags
	}
	if req.IsPrivate != nil {
		fields["is_private"] = *req.IsPrivate
	}
	if req.MaxContributors != nil {
		fields["max_contributors"] = *req.MaxContributors
	}
	if req.ContributionTimeLimit != nil {
		fields["contribution_time_limit"] = *req.ContributionTimeLimit
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.CoverImage != nil {
		fields["cover_image"] = *req.CoverImage
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"story": story})
	}

	if err := h.storyRepository.UpdateStory(c.Request().Context(), c.Param("id"), fields); err != nil {
		return engineError(err)
	}

	updated, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Story updated successfully",
		"story":   updated,
	})
}

// DeleteStory removes a story and all of its contributions
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	claims := principal(c)

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	if claims.UserID != story.CreatorID && !claims.IsAdmin() {
		return engineError(fmt.Errorf("%w: you do not have permission to delete this story", apperrors.ErrPermission))
	}

	if err := h.contributionRepository.DeleteContributionsByStoryID(c.Request().Context(), c.Param("id")); err != nil {
		return engineError(err)
	}
	if err := h.storyRepository.DeleteStory(c.Request().Context(), c.Param("id")); err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Story deleted successfully"})
}

// LikeStory increments the story's like counter
func (h *StoryHandler) LikeStory(c echo.Context) error {
	likes, err := h.storyRepository.IncrementLikes(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Story liked successfully",
		"likes":   likes,
	})
}

// GetStats returns platform counts for the landing page
func (h *StoryHandler) GetStats(c echo.Context) error {
	storyCount, err := h.storyRepository.CountStories(c.Request().Context(), repositories.StoryFilter{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch stats")
	}
	writerCount, err := h.userRepository.CountUsers()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch stats")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"stats": echo.Map{
			"stories": storyCount,
			"writers": writerCount,
		},
	})
}

// JoinStoryRoom marks the caller present in the story's realtime room
func (h *StoryHandler) JoinStoryRoom(c echo.Context) error {
	claims := principal(c)

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineError(err)
	}
	if err := checkStoryVisibility(story, claims); err != nil {
		return engineError(err)
	}

	member := realtime.Member{UserID: claims.UserID}
	if user, err := h.userRepository.GetUserByID(claims.UserID); err == nil {
		member.Username = user.Username
	}
	h.hub.Join(c.Param("id"), member)

	return c.JSON(http.StatusOK, echo.Map{"active_users": h.hub.ActiveUsers(c.Param("id"))})
}

// LeaveStoryRoom removes the caller from the story's realtime room
func (h *StoryHandler) LeaveStoryRoom(c echo.Context) error {
	claims := principal(c)
	h.hub.Leave(c.Param("id"), claims.UserID)
	return c.JSON(http.StatusOK, echo.Map{"active_users": h.hub.ActiveUsers(c.Param("id"))})
}

// GetPresence lists the users currently viewing the story
func (h *StoryHandler) GetPresence(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"active_users": h.hub.ActiveUsers(c.Param("id"))})
}
