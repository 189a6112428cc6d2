package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"sudonet/internal/cache"
	"sudonet/internal/models"
	"sudonet/internal/observability"
	"sudonet/internal/repository"

)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
)

// Post origins, used as a metric label.
const (
	OriginAPI      = "api"
	OriginComposer = "composer"
	OriginCLI      = "cli"
)

type PostService struct {
	postRepo  repository.PostRepository
	publisher ChangePublisher
}

type CreatePostInput struct {
	Name     string
	Title    string
	Content  string
	ImageURL string
	Origin   string
}

func NewPostService(postRepo repository.PostRepository, publisher ChangePublisher) *PostService {
	return &PostService{postRepo: postRepo, publisher: publisher}
}

// CreatePost stores a trimmed post. Blank name and image become NULL.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	post := &models.Post{
		Name:     optionalString(in.Name),
		Title:    title,
		Content:  content,
		ImageURL: optionalString(in.ImageURL),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}

	origin := in.Origin
	if origin == "" {
		origin = OriginAPI
	}
	observability.PostsCreated.WithLabelValues(origin).Inc()
	span.AddAttributes(observability.AttrPostID.String(post.ID), observability.AttrPostOrigin.String(origin))

	postsChanged(ctx, s.publisher, ChangeInsert, post.ID)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		p, err := s.postRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// TrackView counts one view and returns the updated post.
func (s *PostService) TrackView(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.postRepo.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	postsChanged(ctx, s.publisher, ChangeUpdate, id)
	return post, nil
}

// optionalString trims s and maps the empty string to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
