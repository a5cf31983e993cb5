package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoryFilter narrows story listings
type StoryFilter struct {
	Genre          string
	Status         string
	IncludePrivate bool
}

// StoryRepository defines the interface for story data operations
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetStories(ctx context.Context, filter StoryFilter, skip, limit int64, sortField string, ascending bool) ([]models.Story, error)
	CountStories(ctx context.Context, filter StoryFilter) (int64, error)
	UpdateStory(ctx context.Context, id string, fields bson.M) error
	DeleteStory(ctx context.Context, id string) error
	AddContributor(ctx context.Context, storyID string, userID uint) error
	AddCollaborator(ctx context.Context, storyID string, collaborator models.Collaborator) error
	RemoveCollaborator(ctx context.Context, storyID string, userID uint) error
	UpdateCollaboratorRole(ctx context.Context, storyID string, userID uint, role string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (int, error)
}

// MongoStoryRepository implements StoryRepository for MongoDB
type MongoStoryRepository struct {
	collection *mongo.Collection
}

// NewMongoStoryRepository creates a new MongoStoryRepository
func NewMongoStoryRepository(db *mongo.Database) *MongoStoryRepository {
	return &MongoStoryRepository{collection: db.Collection("stories")}
}

// CreateStory creates a new story in MongoDB
func (r *MongoStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.UpdatedAt = time.Now()
	if story.Status == "" {
		story.Status = models.StoryStatusActive
	}
	if story.Tags == nil {
		story.Tags = []string{}
	}
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

// GetStoryByID retrieves a story by ID from MongoDB
func (r *MongoStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}

	var story models.Story
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &story, nil
}

func (r *MongoStoryRepository) buildFilter(filter StoryFilter) bson.M {
	query := bson.M{}
	if filter.Genre != "" {
		query["genre"] = filter.Genre
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if !filter.IncludePrivate {
		query["is_private"] = bson.M{"$ne": true}
	}
	return query
}

// GetStories retrieves stories from MongoDB with pagination, filters and sorting
func (r *MongoStoryRepository) GetStories(ctx context.Context, filter StoryFilter, skip, limit int64, sortField string, ascending bool) ([]models.Story, error) {
	order := -1
	if ascending {
		order = 1
	}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: sortField, Value: order}})
	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// CountStories counts the stories matching the filter
func (r *MongoStoryRepository) CountStories(ctx context.Context, filter StoryFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

// UpdateStory applies a partial update to a story document
func (r *MongoStoryRepository) UpdateStory(ctx context.Context, id string, fields bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}

	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	return nil
}

// DeleteStory deletes a story by ID from MongoDB
func (r *MongoStoryRepository) DeleteStory(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
	}
	return nil
}

// AddContributor appends a user to the story's contributor set if absent
func (r *MongoStoryRepository) AddContributor(ctx context.Context, storyID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$addToSet": bson.M{"contributors": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// AddCollaborator appends an invited user with a role
func (r *MongoStoryRepository) AddCollaborator(ctx context.Context, storyID string, collaborator models.Collaborator) error {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "collaborators.user_id": bson.M{"$ne": collaborator.UserID}},
		bson.M{
			"$push": bson.M{"collaborators": collaborator},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	return err
}

// RemoveCollaborator removes a user from the story's collaborator list
func (r *MongoStoryRepository) RemoveCollaborator(ctx context.Context, storyID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$pull": bson.M{"collaborators": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	return err
}

// UpdateCollaboratorRole changes an existing collaborator's role
func (r *MongoStoryRepository) UpdateCollaboratorRole(ctx context.Context, storyID string, userID uint, role string) error {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "collaborators.user_id": userID},
		bson.M{"$set": bson.M{"collaborators.$.role": role, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: collaborator not found", apperrors.ErrNotFound)
	}
	return nil
}

// IncrementViews increments the view counter of a story
func (r *MongoStoryRepository) IncrementViews(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

// IncrementLikes increments the like counter and returns the new value
func (r *MongoStoryRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	var updated models.Story
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$inc": bson.M{"likes": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("%w: story not found", apperrors.ErrNotFound)
		}
		return 0, err
	}
	return updated.Likes, nil
}
