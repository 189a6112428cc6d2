package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"sudonet/internal/models"
	"sudonet/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost(t *testing.T) {
	repos := newTestRepos(t)
	pub := &recordingPublisher{}
	svc := NewPostService(repos.posts, pub)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Name:    "  alice ",
		Title:   " Hello ",
		Content: "World\n",
	})
	require.NoError(t, err)
	require.NotNil(t, post.Name)
	assert.Equal(t, "alice", *post.Name)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "World", post.Content)
	assert.Nil(t, post.ImageURL)
	assert.Zero(t, post.StreetCredsCount)

	events := pub.ofType(notifications.EventPostsChanged)
	require.Len(t, events, 1)
	assert.Equal(t, PostChange{Table: "posts", Event: ChangeInsert, ID: post.ID}, events[0].Payload)
}

func TestPostService_CreatePostBlankNameIsNull(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewPostService(repos.posts, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{Name: "   ", Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Nil(t, post.Name)
	assert.Equal(t, "Anonymous", post.AuthorName())
}

func TestPostService_CreatePostValidation(t *testing.T) {
	svc := NewPostService(nil, nil)

	tests := []struct {
		name string
		in   CreatePostInput
		want string
	}{
		{"blank title", CreatePostInput{Title: "  ", Content: "c"}, "Title is required"},
		{"long title", CreatePostInput{Title: strings.Repeat("x", 301), Content: "c"}, "Title too long (max 300 characters)"},
		{"blank content", CreatePostInput{Title: "t", Content: "\n\t"}, "Content is required"},
		{"long content", CreatePostInput{Title: "t", Content: strings.Repeat("x", 50001)}, "Content too long (max 50000 characters)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestPostService_TrackView(t *testing.T) {
	repos := newTestRepos(t)
	pub := &recordingPublisher{}
	svc := NewPostService(repos.posts, pub)
	ctx := context.Background()

	p := repos.seedPost(t, time.Now(), postSeed{title: "viewed"})
	for i := 0; i < 3; i++ {
		_, err := svc.TrackView(ctx, p.ID)
		require.NoError(t, err)
	}

	got, err := svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ViewsCount)
	assert.Len(t, pub.ofType(notifications.EventPostsChanged), 3)

	_, err = svc.TrackView(ctx, "missing")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostService_NotConfigured(t *testing.T) {
	repos := reposFor(nil)
	svc := NewPostService(repos.posts, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}

func TestCommentService(t *testing.T) {
	repos := newTestRepos(t)
	pub := &recordingPublisher{}
	svc := NewCommentService(repos.comments, pub)
	ctx := context.Background()

	p := repos.seedPost(t, time.Now(), postSeed{title: "discussed"})

	empty, err := svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: p.ID, Name: "bob", Content: "first"})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: p.ID, Content: " second "})
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	assert.Nil(t, comments[1].Name)

	post, err := repos.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentsCount)
	assert.Len(t, pub.ofType(notifications.EventPostsChanged), 2)

	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: p.ID, Content: "   "})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.CreateComment(ctx, CreateCommentInput{PostID: "missing", Content: "orphan"})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
