package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/realtime"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// testEnv wires the handlers against in-memory fakes.
type testEnv struct {
	e             *echo.Echo
	stories       *fakeStoryRepo
	contributions *fakeContributionRepo
	votes         *fakeVoteRepo
	users         *fakeUserRepo
	invites       *fakeInviteRepo
	notifications *fakeNotificationRepo
	hub           *realtime.Hub
}

func newTestEnv() *testEnv {
	return &testEnv{
		e:             echo.New(),
		stories:       newFakeStoryRepo(),
		contributions: newFakeContributionRepo(),
		votes:         newFakeVoteRepo(),
		users:         newFakeUserRepo(),
		invites:       newFakeInviteRepo(),
		notifications: newFakeNotificationRepo(),
		hub:           realtime.NewHub(),
	}
}

func (env *testEnv) contributionHandler() *ContributionHandler {
	return NewContributionHandler(env.contributions, env.stories, env.users, env.notifications, env.hub)
}

func (env *testEnv) voteHandler() *VoteHandler {
	return NewVoteHandler(env.votes, env.contributions, env.notifications, env.hub)
}

func (env *testEnv) storyHandler() *StoryHandler {
	return NewStoryHandler(env.stories, env.contributions, env.users, env.hub)
}

func (env *testEnv) collaboratorHandler() *CollaboratorHandler {
	return NewCollaboratorHandler(env.stories, env.users, env.invites)
}

func (env *testEnv) notificationHandler() *NotificationHandler {
	return NewNotificationHandler(env.notifications)
}

func (env *testEnv) seedUser(t *testing.T, id uint, username string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Username: username, Email: username + "@example.com", Role: models.RoleUser}
	require.NoError(t, env.users.CreateUser(user))
	return user
}

func (env *testEnv) seedStory(t *testing.T, creatorID uint, mutate func(*models.Story)) *models.Story {
	t.Helper()
	story := &models.Story{
		Title:        "The Long Night",
		Description:  "A tale written one turn at a time",
		Genre:        "Fantasy",
		CreatorID:    creatorID,
		Contributors: []uint{creatorID},
		Status:       models.StoryStatusActive,
	}
	if mutate != nil {
		mutate(story)
	}
	require.NoError(t, env.stories.CreateStory(context.Background(), story))
	return story
}

func (env *testEnv) seedContribution(t *testing.T, story *models.Story, userID uint, position int) *models.Contribution {
	t.Helper()
	contribution := &models.Contribution{
		StoryID:  story.ID,
		UserID:   userID,
		Content:  "The road wound ever deeper into the hills.",
		Status:   models.ContributionStatusPending,
		Position: position,
	}
	require.NoError(t, env.contributions.CreateContribution(context.Background(), contribution))
	return contribution
}

func claimsFor(user *models.User) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func adminClaims() *models.JwtCustomClaims {
	return &models.JwtCustomClaims{UserID: 999, Email: "admin@example.com", Role: models.RoleAdmin}
}

// jsonRequest builds an echo context carrying a JSON body and, when claims is
// non-nil, an authenticated principal.
func (env *testEnv) jsonRequest(t *testing.T, method, target string, body any, claims *models.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if claims != nil {
		c.Set("user", claims)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}
