package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository is the post store. A malformed id is reported as ErrNotFound.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	// Summarize resolves the author (who gets notified) and the excerpt
	Summarize(ctx context.Context, id string) (models.PostSummary, error)
	// Summaries looks up several posts at once; unknown or malformed ids are absent
	Summaries(ctx context.Context, ids []string) (map[string]models.PostSummary, error)
	AdjustCounters(ctx context.Context, id string, delta models.PostCounters) error
}

type MongoPostRepository struct {
	collection *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

func postObjectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid post ID %q", ErrNotFound, id)
	}
	return objID, nil
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *MongoPostRepository) findOne(ctx context.Context, id string, out any, opts ...*options.FindOneOptions) error {
	objID, err := postObjectID(id)
	if err != nil {
		return err
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.findOne(ctx, id, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

var summaryProjection = bson.M{"author_id": 1, "content": 1}

type summaryDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	AuthorID uint               `bson:"author_id"`
	Content  string             `bson:"content"`
}

func (d summaryDoc) toSummary() models.PostSummary {
	return models.PostSummary{ID: d.ID.Hex(), AuthorID: d.AuthorID, Content: d.Content}
}

func (r *MongoPostRepository) Summarize(ctx context.Context, id string) (models.PostSummary, error) {
	var doc summaryDoc
	if err := r.findOne(ctx, id, &doc, options.FindOne().SetProjection(summaryProjection)); err != nil {
		return models.PostSummary{}, err
	}
	return doc.toSummary(), nil
}

func (r *MongoPostRepository) Summaries(ctx context.Context, ids []string) (map[string]models.PostSummary, error) {
	out := make(map[string]models.PostSummary, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := postObjectID(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return out, nil
	}

	cur, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, err
	}
	var docs []summaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID.Hex()] = d.toSummary()
	}
	return out, nil
}

// AdjustCounters applies delta with a single $inc
func (r *MongoPostRepository) AdjustCounters(ctx context.Context, id string, delta models.PostCounters) error {
	inc := bson.M{}
	if delta.Likes != 0 {
		inc["likes_count"] = delta.Likes
	}
	if delta.Comments != 0 {
		inc["comments_count"] = delta.Comments
	}
	if len(inc) == 0 {
		return nil
	}
	objID, err := postObjectID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": inc, "$currentDate": bson.M{"updated_at": true}})
	return err
}
