// Package fakes provides in-memory stand-ins for external stores in tests.
package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStore is an in-memory repositories.PostRepository
type PostStore struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]*models.Post)}
}

func (m *PostStore) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	m.posts[post.ID.Hex()] = &cp
	return nil
}

func (m *PostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (m *PostStore) Summarize(ctx context.Context, id string) (models.PostSummary, error) {
	post, err := m.GetPostByID(ctx, id)
	if err != nil {
		return models.PostSummary{}, err
	}
	return models.PostSummary{ID: id, AuthorID: post.AuthorID, Content: post.Content}, nil
}

func (m *PostStore) Summaries(ctx context.Context, ids []string) (map[string]models.PostSummary, error) {
	out := make(map[string]models.PostSummary, len(ids))
	for _, id := range ids {
		if s, err := m.Summarize(ctx, id); err == nil {
			out[id] = s
		}
	}
	return out, nil
}

func (m *PostStore) AdjustCounters(_ context.Context, id string, delta models.PostCounters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post, ok := m.posts[id]; ok {
		post.Likes += delta.Likes
		post.Comments += delta.Comments
	}
	return nil
}

var _ repositories.PostRepository = (*PostStore)(nil)
