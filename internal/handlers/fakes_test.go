package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes backing the handler tests.

var (
	_ repositories.StoryRepository        = (*fakeStoryRepo)(nil)
	_ repositories.ContributionRepository = (*fakeContributionRepo)(nil)
	_ repositories.VoteRepository         = (*fakeVoteRepo)(nil)
	_ repositories.UserRepository         = (*fakeUserRepo)(nil)
	_ repositories.InviteRepository       = (*fakeInviteRepo)(nil)
	_ repositories.NotificationRepository = (*fakeNotificationRepo)(nil)
)

type fakeStoryRepo struct {
	mu      sync.Mutex
	stories map[string]*models.Story
}

func newFakeStoryRepo() *fakeStoryRepo {
	return &fakeStoryRepo{stories: make(map[string]*models.Story)}
}

func (r *fakeStoryRepo) CreateStory(ctx context.Context, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.UpdatedAt = time.Now()
	if story.Status == "" {
		story.Status = models.StoryStatusActive
	}
	clone := *story
	r.stories[story.ID.Hex()] = &clone
	return nil
}

func (r *fakeStoryRepo) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	clone := *story
	return &clone, nil
}

func (r *fakeStoryRepo) GetStories(ctx context.Context, filter repositories.StoryFilter, skip, limit int64, sortField string, ascending bool) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stories []models.Story
	for _, story := range r.stories {
		if filter.Genre != "" && story.Genre != filter.Genre {
			continue
		}
		if filter.Status != "" && story.Status != filter.Status {
			continue
		}
		if !filter.IncludePrivate && story.IsPrivate {
			continue
		}
		stories = append(stories, *story)
	}
	sort.Slice(stories, func(i, j int) bool {
		less := stories[i].CreatedAt.Before(stories[j].CreatedAt)
		if ascending {
			return less
		}
		return !less
	})
	if skip >= int64(len(stories)) {
		return []models.Story{}, nil
	}
	stories = stories[skip:]
	if int64(len(stories)) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}

func (r *fakeStoryRepo) CountStories(ctx context.Context, filter repositories.StoryFilter) (int64, error) {
	stories, err := r.GetStories(ctx, filter, 0, int64(1<<30), "created_at", true)
	if err != nil {
		return 0, err
	}
	return int64(len(stories)), nil
}

func (r *fakeStoryRepo) UpdateStory(ctx context.Context, id string, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	for key, value := range fields {
		switch key {
		case "title":
			story.Title = value.(string)
		case "description":
			story.Description = value.(string)
		case "genre":
			story.Genre = value.(string)
		case "tags":
			story.Tags = value.([]string)
		case "is_private":
			story.IsPrivate = value.(bool)
		case "max_contributors":
			story.MaxContributors = value.(int)
		case "contribution_time_limit":
			story.ContributionTimeLimit = value.(int)
		case "status":
			story.Status = value.(string)
		case "cover_image":
			story.CoverImage = value.(string)
		case "updated_at":
			story.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (r *fakeStoryRepo) DeleteStory(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stories[id]; !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	delete(r.stories, id)
	return nil
}

func (r *fakeStoryRepo) AddContributor(ctx context.Context, storyID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	if !story.HasContributor(userID) {
		story.Contributors = append(story.Contributors, userID)
	}
	return nil
}

func (r *fakeStoryRepo) AddCollaborator(ctx context.Context, storyID string, collaborator models.Collaborator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	if !story.HasCollaborator(collaborator.UserID) {
		story.Collaborators = append(story.Collaborators, collaborator)
	}
	return nil
}

func (r *fakeStoryRepo) RemoveCollaborator(ctx context.Context, storyID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	kept := story.Collaborators[:0]
	for _, collaborator := range story.Collaborators {
		if collaborator.UserID != userID {
			kept = append(kept, collaborator)
		}
	}
	story.Collaborators = kept
	return nil
}

func (r *fakeStoryRepo) UpdateCollaboratorRole(ctx context.Context, storyID string, userID uint, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[storyID]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	for i := range story.Collaborators {
		if story.Collaborators[i].UserID == userID {
			story.Collaborators[i].Role = role
			return nil
		}
	}
	return fmt.Errorf("%w: collaborator not found", apperrors.ErrNotFound)
}

func (r *fakeStoryRepo) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	story.Views++
	return nil
}

func (r *fakeStoryRepo) IncrementLikes(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	story, ok := r.stories[id]
	if !ok {
		return 0, fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	story.Likes++
	return story.Likes, nil
}

type fakeContributionRepo struct {
	mu            sync.Mutex
	contributions map[string]*models.Contribution
}

func newFakeContributionRepo() *fakeContributionRepo {
	return &fakeContributionRepo{contributions: make(map[string]*models.Contribution)}
}

func (r *fakeContributionRepo) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution.ID = primitive.NewObjectID()
	contribution.CreatedAt = time.Now()
	contribution.UpdatedAt = time.Now()
	if contribution.Status == "" {
		contribution.Status = models.ContributionStatusPending
	}
	clone := *contribution
	r.contributions[contribution.ID.Hex()] = &clone
	return nil
}

func (r *fakeContributionRepo) GetContributionByID(ctx context.Context, id string) (*models.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution, ok := r.contributions[id]
	if !ok {
		return nil, fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	clone := *contribution
	return &clone, nil
}

func (r *fakeContributionRepo) GetContributionsByStoryID(ctx context.Context, storyID string, sortField string, ascending bool) ([]models.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var contributions []models.Contribution
	for _, contribution := range r.contributions {
		if contribution.StoryID.Hex() == storyID {
			contributions = append(contributions, *contribution)
		}
	}
	sort.Slice(contributions, func(i, j int) bool {
		var less bool
		switch sortField {
		case "votes.upvotes":
			less = contributions[i].Votes.Upvotes < contributions[j].Votes.Upvotes
		case "created_at":
			less = contributions[i].CreatedAt.Before(contributions[j].CreatedAt)
		default:
			less = contributions[i].Position < contributions[j].Position
		}
		if ascending {
			return less
		}
		return !less
	})
	return contributions, nil
}

func (r *fakeContributionRepo) GetMaxPosition(ctx context.Context, storyID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, contribution := range r.contributions {
		if contribution.StoryID.Hex() == storyID && contribution.Position > max {
			max = contribution.Position
		}
	}
	return max, nil
}

func (r *fakeContributionRepo) UpdateContribution(ctx context.Context, id string, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution, ok := r.contributions[id]
	if !ok {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	for key, value := range fields {
		switch key {
		case "content":
			contribution.Content = value.(string)
		case "status":
			contribution.Status = value.(string)
		case "updated_at":
			contribution.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (r *fakeContributionRepo) DeleteContribution(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contributions[id]; !ok {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	delete(r.contributions, id)
	return nil
}

func (r *fakeContributionRepo) DeleteContributionsByStoryID(ctx context.Context, storyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, contribution := range r.contributions {
		if contribution.StoryID.Hex() == storyID {
			delete(r.contributions, id)
		}
	}
	return nil
}

func (r *fakeContributionRepo) AddComment(ctx context.Context, id string, comment models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution, ok := r.contributions[id]
	if !ok {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	contribution.Comments = append(contribution.Comments, comment)
	return nil
}

func (r *fakeContributionRepo) IncrementVote(ctx context.Context, id string, voteType string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution, ok := r.contributions[id]
	if !ok {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	if voteType == models.VoteTypeDownvote {
		contribution.Votes.Downvotes += delta
	} else {
		contribution.Votes.Upvotes += delta
	}
	return nil
}

func (r *fakeContributionRepo) UnselectSiblings(ctx context.Context, storyID string, position int, excludeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, contribution := range r.contributions {
		if contribution.StoryID.Hex() == storyID && contribution.Position == position && id != excludeID {
			contribution.IsSelected = false
		}
	}
	return nil
}

func (r *fakeContributionRepo) MarkSelected(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contribution, ok := r.contributions[id]
	if !ok {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	contribution.IsSelected = true
	contribution.Status = models.ContributionStatusApproved
	return nil
}

type fakeVoteRepo struct {
	mu     sync.Mutex
	votes  map[uint]*models.Vote
	nextID uint
	getErr error // forced GetVote failure
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[uint]*models.Vote), nextID: 1}
}

func (r *fakeVoteRepo) CreateVote(vote *models.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.votes {
		if existing.ContributionID == vote.ContributionID && existing.UserID == vote.UserID {
			return fmt.Errorf("duplicate vote for contribution %s", vote.ContributionID)
		}
	}
	vote.ID = r.nextID
	r.nextID++
	clone := *vote
	r.votes[vote.ID] = &clone
	return nil
}

func (r *fakeVoteRepo) GetVote(contributionID string, userID uint) (*models.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, vote := range r.votes {
		if vote.ContributionID == contributionID && vote.UserID == userID {
			clone := *vote
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
}

func (r *fakeVoteRepo) UpdateVoteType(voteID uint, voteType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	vote, ok := r.votes[voteID]
	if !ok {
		return fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
	}
	vote.VoteType = voteType
	return nil
}

func (r *fakeVoteRepo) DeleteVote(voteID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.votes[voteID]; !ok {
		return fmt.Errorf("%w: vote not found", apperrors.ErrNotFound)
	}
	delete(r.votes, voteID)
	return nil
}

func (r *fakeVoteRepo) GetVotesByContributionID(contributionID string) ([]models.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var votes []models.Vote
	for _, vote := range r.votes {
		if vote.ContributionID == contributionID {
			votes = append(votes, *vote)
		}
	}
	return votes, nil
}

func (r *fakeVoteRepo) CountVotesByType(contributionID string, voteType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, vote := range r.votes {
		if vote.ContributionID == contributionID && vote.VoteType == voteType {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
}

func (r *fakeUserRepo) GetUsersByIDs(ids []uint) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) CountUsers() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites map[uint]*models.Invite
	nextID  uint
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[uint]*models.Invite), nextID: 1}
}

func (r *fakeInviteRepo) CreateInvite(invite *models.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invites {
		if existing.Email == invite.Email && existing.StoryID == invite.StoryID {
			return fmt.Errorf("duplicate invite for %s", invite.Email)
		}
	}
	invite.ID = r.nextID
	r.nextID++
	clone := *invite
	r.invites[invite.ID] = &clone
	return nil
}

func (r *fakeInviteRepo) GetInviteByEmailAndStory(email, storyID string) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.Email == email && invite.StoryID == storyID {
			clone := *invite
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: invite not found", apperrors.ErrNotFound)
}

func (r *fakeInviteRepo) GetValidInviteByToken(token string) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.Token == token && invite.ExpiresAt.After(time.Now()) {
			clone := *invite
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid or expired invite token", apperrors.ErrValidation)
}

func (r *fakeInviteRepo) DeleteInvite(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invites, id)
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        uint
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) CreateNotification(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	r.nextID++
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for i := len(r.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if r.notifications[i].RecipientID == recipientID {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(recipientID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(notificationID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notificationID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification not found", apperrors.ErrNotFound)
}

func (r *fakeNotificationRepo) MarkAllAsRead(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}
