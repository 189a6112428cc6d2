package service

import (
	"context"
	"errors"
	"testing"

	"sudonet/internal/models"
	"sudonet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func TestPostService_CreatePostStoreFailureDoesNotPublish(t *testing.T) {
	repo := new(MockPostRepository)
	pub := &recordingPublisher{}
	svc := NewPostService(repo, pub)

	boom := errors.New("connection reset")
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Title == "Hello" && p.Name == nil
	})).Return(boom).Once()

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "Hello", Content: "World"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, pub.Events())
	repo.AssertExpectations(t)
}

func TestPostService_TrackViewPublishesUpdate(t *testing.T) {
	repo := new(MockPostRepository)
	pub := &recordingPublisher{}
	svc := NewPostService(repo, pub)

	repo.On("IncrementViews", mock.Anything, "p1").
		Return(&models.Post{ID: "p1", ViewsCount: 4}, nil).Once()
	repo.On("IncrementViews", mock.Anything, "missing").
		Return(nil, models.NewNotFoundError("Post", "missing")).Once()

	post, err := svc.TrackView(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, post.ViewsCount)

	_, err = svc.TrackView(context.Background(), "missing")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, PostChange{Table: "posts", Event: ChangeUpdate, ID: "p1"}, events[0].Payload)
	repo.AssertExpectations(t)
}
