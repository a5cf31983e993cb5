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

// ContributionRepository defines the interface for contribution data operations
type ContributionRepository interface {
	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	GetContributionByID(ctx context.Context, id string) (*models.Contribution, error)
	GetContributionsByStoryID(ctx context.Context, storyID string, sortField string, ascending bool) ([]models.Contribution, error)
	GetMaxPosition(ctx context.Context, storyID string) (int, error)
	UpdateContribution(ctx context.Context, id string, fields bson.M) error
	DeleteContribution(ctx context.Context, id string) error
	DeleteContributionsByStoryID(ctx context.Context, storyID string) error
	AddComment(ctx context.Context, id string, comment models.Comment) error
	IncrementVote(ctx context.Context, id string, voteType string, delta int) error
	UnselectSiblings(ctx context.Context, storyID string, position int, excludeID string) error
	MarkSelected(ctx context.Context, id string) error
}

// MongoContributionRepository implements ContributionRepository for MongoDB
type MongoContributionRepository struct {
	collection *mongo.Collection
}

// NewMongoContributionRepository creates a new MongoContributionRepository
func NewMongoContributionRepository(db *mongo.Database) *MongoContributionRepository {
	return &MongoContributionRepository{collection: db.Collection("contributions")}
}

// CreateContribution creates a new contribution in MongoDB
func (r *MongoContributionRepository) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	contribution.ID = primitive.NewObjectID()
	contribution.CreatedAt = time.Now()
	contribution.UpdatedAt = time.Now()
	if contribution.Status == "" {
		contribution.Status = models.ContributionStatusPending
	}
	if contribution.Comments == nil {
		contribution.Comments = []models.Comment{}
	}
	_, err := r.collection.InsertOne(ctx, contribution)
	return err
}

// GetContributionByID retrieves a contribution by ID from MongoDB
func (r *MongoContributionRepository) GetContributionByID(ctx context.Context, id string) (*models.Contribution, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}

	var contribution models.Contribution
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&contribution)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &contribution, nil
}

// GetContributionsByStoryID retrieves a story's contributions sorted by the given field
func (r *MongoContributionRepository) GetContributionsByStoryID(ctx context.Context, storyID string, sortField string, ascending bool) ([]models.Contribution, error) {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}

	order := -1
	if ascending {
		order = 1
	}
	findOptions := options.Find().SetSort(bson.D{{Key: sortField, Value: order}})
	cursor, err := r.collection.Find(ctx, bson.M{"story_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contributions []models.Contribution
	if err = cursor.All(ctx, &contributions); err != nil {
		return nil, err
	}
	return contributions, nil
}

// GetMaxPosition returns the highest position assigned in the story, or 0 if
// the story has no contributions yet.
func (r *MongoContributionRepository) GetMaxPosition(ctx context.Context, storyID string) (int, error) {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}

	var last models.Contribution
	findOptions := options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})
	err = r.collection.FindOne(ctx, bson.M{"story_id": objID}, findOptions).Decode(&last)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return last.Position, nil
}

// UpdateContribution applies a partial update to a contribution document
func (r *MongoContributionRepository) UpdateContribution(ctx context.Context, id string, fields bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}

	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	return nil
}

// DeleteContribution deletes a contribution by ID. Sibling positions are
// left untouched; the sequence keeps its gap.
func (r *MongoContributionRepository) DeleteContribution(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	return nil
}

// DeleteContributionsByStoryID removes all contributions of a story
func (r *MongoContributionRepository) DeleteContributionsByStoryID(ctx context.Context, storyID string) error {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.DeleteMany(ctx, bson.M{"story_id": objID})
	return err
}

// AddComment appends a comment to the contribution's comment list
func (r *MongoContributionRepository) AddComment(ctx context.Context, id string, comment models.Comment) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	return nil
}

// IncrementVote adjusts one of the denormalized vote counters by delta
func (r *MongoContributionRepository) IncrementVote(ctx context.Context, id string, voteType string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}
	field := "votes.upvotes"
	if voteType == models.VoteTypeDownvote {
		field = "votes.downvotes"
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}

// UnselectSiblings clears is_selected on every other contribution sharing
// the same (story, position) slot.
func (r *MongoContributionRepository) UnselectSiblings(ctx context.Context, storyID string, position int, excludeID string) error {
	storyObjID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return fmt.Errorf("%w: invalid story ID format", apperrors.ErrNotFound)
	}
	excludeObjID, err := primitive.ObjectIDFromHex(excludeID)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}
	_, err = r.collection.UpdateMany(ctx,
		bson.M{"story_id": storyObjID, "position": position, "_id": bson.M{"$ne": excludeObjID}},
		bson.M{"$set": bson.M{"is_selected": false}})
	return err
}

// MarkSelected flags the contribution as the canonical continuation and
// approves it.
func (r *MongoContributionRepository) MarkSelected(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid contribution ID format", apperrors.ErrNotFound)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"is_selected": true,
			"status":      models.ContributionStatusApproved,
			"updated_at":  time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: contribution not found", apperrors.ErrNotFound)
	}
	return nil
}
