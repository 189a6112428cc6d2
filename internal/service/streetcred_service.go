package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/notifications"
	"sudonet/internal/observability"
	"sudonet/internal/repository"
)

const reconcileTimeout = 5 * time.Second

type StreetCredService struct {
	creds     repository.StreetCredRepository
	publisher ChangePublisher

	wg sync.WaitGroup
}

// ToggleOutcome is what the caller shows right away. Count is optimistic;
// the authoritative value follows as a post_reaction_updated event.
type ToggleOutcome struct {
	PostID string `json:"post_id"`
	Marked bool   `json:"marked"`
	Count  int    `json:"street_creds_count"`
}

func NewStreetCredService(creds repository.StreetCredRepository, publisher ChangePublisher) *StreetCredService {
	return &StreetCredService{creds: creds, publisher: publisher}
}

// Toggle flips requester's mark on postID.
func (s *StreetCredService) Toggle(ctx context.Context, postID, requester string) (*ToggleOutcome, error) {
	if strings.TrimSpace(requester) == "" {
		return nil, models.NewValidationError("Requester fingerprint is required")
	}

	span, ctx := observability.NewSpan(ctx, "StreetCredService.Toggle", observability.AttrPostID.String(postID))
	defer span.End()

	res, err := s.creds.Toggle(ctx, postID, requester)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(observability.AttrMarked.Bool(res.Marked))

	count := res.Previous + 1
	state := "marked"
	if !res.Marked {
		count = max(res.Previous-1, 0)
		state = "unmarked"
	}
	observability.StreetCredToggles.WithLabelValues(state).Inc()

	postsChanged(ctx, s.publisher, ChangeUpdate, postID)
	s.reconcile(postID)

	return &ToggleOutcome{PostID: postID, Marked: res.Marked, Count: count}, nil
}

// Status reports whether requester currently holds a mark on postID.
func (s *StreetCredService) Status(ctx context.Context, postID, requester string) (bool, error) {
	return s.creds.Exists(ctx, postID, requester)
}

// reconcile re-reads the stored counter after the response and publishes it.
func (s *StreetCredService) reconcile(postID string) {
	if s.publisher == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		count, err := s.creds.Count(ctx, postID)
		if err != nil {
			middleware.Logger.Warn("street cred reconcile failed",
				slog.String("post_id", postID), slog.String("error", err.Error()))
			return
		}
		err = s.publisher.Publish(ctx, notifications.PostsChannel, notifications.Event{
			Type:    notifications.EventPostReactionUpdated,
			Payload: ReactionUpdate{PostID: postID, StreetCredsCount: count},
		})
		if err != nil {
			middleware.Logger.Warn("failed to publish reaction update",
				slog.String("post_id", postID), slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until pending reconciliations finish.
func (s *StreetCredService) Wait() {
	s.wg.Wait()
}
