package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"sudonet/internal/models"
	"sudonet/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	publisher   ChangePublisher
}

type CreateCommentInput struct {
	PostID  string
	Name    string
	Content string
}

func NewCommentService(commentRepo repository.CommentRepository, publisher ChangePublisher) *CommentService {
	return &CommentService{commentRepo: commentRepo, publisher: publisher}
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// CreateComment appends a comment; the parent's counter moves in the same write.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		Name:    optionalString(in.Name),
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	postsChanged(ctx, s.publisher, ChangeUpdate, in.PostID)
	return comment, nil
}
