package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/services"
	"github.com/stretchr/testify/require"
)

func TestFollowUser(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	path := fmt.Sprintf("/api/v1/users/%d/follow", env.bob.ID)

	// When alice follows bob
	rec := env.do(t, env.alice, http.MethodPost, path, "")

	// Then bob is notified once
	requireStatus(t, rec, http.StatusOK)
	req.Equal(true, envelope[map[string]any](t, rec)["following"])
	req.Equal([]services.Event{{RecipientID: env.bob.ID, SenderID: env.alice.ID, Kind: models.KindFollow}}, env.publisher.Events())

	// And following twice conflicts without a second notification
	requireStatus(t, env.do(t, env.alice, http.MethodPost, path, ""), http.StatusConflict)
	req.Len(env.publisher.Events(), 1)

	// Unfollow works once
	requireStatus(t, env.do(t, env.alice, http.MethodDelete, path, ""), http.StatusOK)
	requireStatus(t, env.do(t, env.alice, http.MethodDelete, path, ""), http.StatusNotFound)
	req.Len(env.publisher.Events(), 1)
}

func TestFollowUser_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		as     models.User
		path   string
		status int
	}{
		{name: "unauthenticated", path: fmt.Sprintf("/api/v1/users/%d/follow", env.bob.ID), status: http.StatusUnauthorized},
		{name: "self follow", as: env.alice, path: fmt.Sprintf("/api/v1/users/%d/follow", env.alice.ID), status: http.StatusBadRequest},
		{name: "bad id", as: env.alice, path: "/api/v1/users/abc/follow", status: http.StatusBadRequest},
		{name: "unknown user", as: env.alice, path: "/api/v1/users/999/follow", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireStatus(t, env.do(t, tt.as, http.MethodPost, tt.path, ""), tt.status)
		})
	}
	require.Empty(t, env.publisher.Events())
}

func TestLikePost(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	postID := env.createPost(t, env.bob)
	path := "/api/v1/posts/" + postID + "/likes"

	// When alice likes bob's post
	requireStatus(t, env.do(t, env.alice, http.MethodPost, path, ""), http.StatusCreated)

	// Then the author is notified about that post
	events := env.publisher.Events()
	req.Len(events, 1)
	req.Equal(env.bob.ID, events[0].RecipientID)
	req.Equal(env.alice.ID, events[0].SenderID)
	req.Equal(models.KindLike, events[0].Kind)
	req.Equal(postID, *events[0].PostID)

	post, err := env.posts.GetPostByID(context.Background(), postID)
	req.NoError(err)
	req.Equal(1, post.Likes)

	// And a duplicate like conflicts
	requireStatus(t, env.do(t, env.alice, http.MethodPost, path, ""), http.StatusConflict)
	req.Len(env.publisher.Events(), 1)

	status := env.do(t, env.alice, http.MethodGet, path+"/status", "")
	requireStatus(t, status, http.StatusOK)
	req.Equal(true, envelope[map[string]any](t, status)["has_liked"])

	// Unlike reverts the count and publishes nothing
	requireStatus(t, env.do(t, env.alice, http.MethodDelete, path, ""), http.StatusNoContent)
	requireStatus(t, env.do(t, env.alice, http.MethodDelete, path, ""), http.StatusNotFound)
	post, err = env.posts.GetPostByID(context.Background(), postID)
	req.NoError(err)
	req.Zero(post.Likes)
	req.Len(env.publisher.Events(), 1)
}

func TestLikePost_Own_Post_Still_Publishes_Self_Event(t *testing.T) {
	env := newTestEnv(t)
	postID := env.createPost(t, env.alice)

	requireStatus(t, env.do(t, env.alice, http.MethodPost, "/api/v1/posts/"+postID+"/likes", ""), http.StatusCreated)

	// The publisher, not the handler, drops self-notifications
	events := env.publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, events[0].SenderID, events[0].RecipientID)
}

func TestLikePost_Unknown_Post(t *testing.T) {
	env := newTestEnv(t)
	requireStatus(t, env.do(t, env.alice, http.MethodPost, "/api/v1/posts/6650f1f2a1b2c3d4e5f60708/likes", ""), http.StatusNotFound)
	require.Empty(t, env.publisher.Events())
}

func TestCreateComment(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	postID := env.createPost(t, env.bob)
	path := "/api/v1/posts/" + postID + "/comments"

	// Empty content is rejected by the validator
	requireStatus(t, env.do(t, env.alice, http.MethodPost, path, `{"content":""}`), http.StatusBadRequest)
	req.Empty(env.publisher.Events())

	rec := env.do(t, env.alice, http.MethodPost, path, `{"content":"great photo"}`)
	requireStatus(t, rec, http.StatusCreated)
	comment := envelope[models.Comment](t, rec)
	req.Equal("great photo", comment.Content)
	req.Equal(env.alice.ID, comment.UserID)

	events := env.publisher.Events()
	req.Len(events, 1)
	req.Equal(services.Event{
		RecipientID: env.bob.ID,
		SenderID:    env.alice.ID,
		Kind:        models.KindComment,
		PostID:      events[0].PostID,
		Post:        &models.PostSummary{ID: postID, AuthorID: env.bob.ID, Content: "hello"},
	}, events[0])
	req.Equal(postID, *events[0].PostID)

	list := env.do(t, env.bob, http.MethodGet, path, "")
	requireStatus(t, list, http.StatusOK)
	req.Len(envelope[[]models.Comment](t, list), 1)

	post, err := env.posts.GetPostByID(context.Background(), postID)
	req.NoError(err)
	req.Equal(1, post.Comments)
}

func TestCreateAndGetPost(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	requireStatus(t, env.do(t, env.alice, http.MethodPost, "/api/v1/posts", `{"content":""}`), http.StatusBadRequest)

	rec := env.do(t, env.alice, http.MethodPost, "/api/v1/posts", `{"content":"first post"}`)
	requireStatus(t, rec, http.StatusCreated)
	created := envelope[models.Post](t, rec)
	req.Equal(env.alice.ID, created.AuthorID)

	got := env.do(t, env.bob, http.MethodGet, "/api/v1/posts/"+created.ID.Hex(), "")
	requireStatus(t, got, http.StatusOK)
	req.Equal("first post", envelope[models.Post](t, got).Content)

	requireStatus(t, env.do(t, env.bob, http.MethodGet, "/api/v1/posts/missing", ""), http.StatusNotFound)
}
