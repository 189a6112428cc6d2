package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"sudonet/internal/cache"
	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/repository"
)

// Trending windows.
const (
	PeriodHour = "hour"
	PeriodDay  = "day"
	PeriodAll  = "all"
)

const (
	DefaultFeedLimit   = 10
	MaxFeedLimit       = 100
	profileSearchLimit = 5
	devRosterSize      = 8
)

type FeedQuery struct {
	Period string
	Limit  int
}

// FeedResult is a page of posts. Configured is false when the backend is
// absent, in which case Posts is empty rather than an error.
type FeedResult struct {
	Posts            []*models.Post `json:"posts"`
	Configured       bool           `json:"configured"`
	TotalStreetCreds int            `json:"total_street_creds"`
}

type SearchResult struct {
	Posts      []*models.Post     `json:"posts"`
	Profiles   []*models.UserInfo `json:"profiles"`
	Configured bool               `json:"configured"`
}

type DevRoster struct {
	Devs       []models.DevProfile `json:"devs"`
	Configured bool                `json:"configured"`
}

type FeedService struct {
	posts    repository.PostRepository
	profiles repository.UserInfoRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewFeedService(
	posts repository.PostRepository,
	profiles repository.UserInfoRepository,
	users repository.UserRepository,
) *FeedService {
	return &FeedService{posts: posts, profiles: profiles, users: users, now: time.Now}
}

// ParsePeriod validates a trending window name; empty means all.
func ParsePeriod(raw string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case "":
		return PeriodAll, nil
	case PeriodHour, PeriodDay, PeriodAll:
		return p, nil
	}
	return "", models.NewValidationError("period must be one of hour, day, all")
}

func (s *FeedService) since(period string) time.Time {
	switch period {
	case PeriodHour:
		return s.now().Add(-time.Hour)
	case PeriodDay:
		return s.now().Add(-24 * time.Hour)
	}
	return time.Time{}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	return min(limit, MaxFeedLimit)
}

// RankTrending orders posts by creds + comments + views, highest first.
// The sort is stable, so ties keep the incoming (newest first) order.
func RankTrending(posts []*models.Post) []*models.Post {
	ranked := make([]*models.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TrendingScore() > ranked[j].TrendingScore()
	})
	return ranked
}

func truncate(posts []*models.Post, limit int) []*models.Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// Trending ranks the posts of a period and returns the top of the list.
func (s *FeedService) Trending(ctx context.Context, q FeedQuery) (*FeedResult, error) {
	period, err := ParsePeriod(q.Period)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(q.Limit)

	return s.cachedFeed(ctx, fmt.Sprintf("trending:%s:%d", period, limit), func() ([]*models.Post, error) {
		posts, err := s.posts.List(ctx, repository.PostFilter{Since: s.since(period)})
		if err != nil {
			return nil, err
		}
		return truncate(RankTrending(posts), limit), nil
	})
}

// Recent returns the newest posts.
func (s *FeedService) Recent(ctx context.Context, q FeedQuery) (*FeedResult, error) {
	limit := normalizeLimit(q.Limit)
	return s.cachedFeed(ctx, fmt.Sprintf("recent:%d", limit), func() ([]*models.Post, error) {
		return s.posts.List(ctx, repository.PostFilter{Limit: limit})
	})
}

func (s *FeedService) cachedFeed(ctx context.Context, key string, fetch func() ([]*models.Post, error)) (*FeedResult, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.FeedKey(ctx, key), &posts, cache.FeedTTL, func() error {
		fetched, err := fetch()
		if err != nil {
			return err
		}
		s.hydrateArchetypes(ctx, fetched)
		posts = fetched
		return nil
	})
	if errors.Is(err, models.ErrNotConfigured) {
		return &FeedResult{Posts: []*models.Post{}, Configured: false}, nil
	}
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &FeedResult{Posts: posts, Configured: true, TotalStreetCreds: totalCreds(posts)}, nil
}

// Search matches posts by title, author or content plus a few public profiles.
// Results stay in recency order.
func (s *FeedService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	posts, err := s.posts.Search(ctx, query, MaxFeedLimit)
	if errors.Is(err, models.ErrNotConfigured) {
		return &SearchResult{Posts: []*models.Post{}, Profiles: []*models.UserInfo{}}, nil
	}
	if err != nil {
		return nil, err
	}
	s.hydrateArchetypes(ctx, posts)

	profiles, err := s.profiles.SearchPublic(ctx, query, profileSearchLimit)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "skipping profile search", slog.String("error", err.Error()))
		profiles = nil
	}
	for _, p := range profiles {
		p.Archetype = models.NormalizeArchetype(deref(p.Archetype))
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	if profiles == nil {
		profiles = []*models.UserInfo{}
	}
	return &SearchResult{Posts: posts, Profiles: profiles, Configured: true}, nil
}

// hydrateArchetypes attaches the author's archetype from their public profile.
// Failures are logged and leave posts unchanged.
func (s *FeedService) hydrateArchetypes(ctx context.Context, posts []*models.Post) {
	seen := make(map[string]struct{})
	var handles []string
	for _, p := range posts {
		if p.Name == nil {
			continue
		}
		h := strings.TrimSpace(*p.Name)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			handles = append(handles, h)
		}
	}
	if len(handles) == 0 {
		return
	}

	profiles, err := s.profiles.ListPublicByUsernames(ctx, handles)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "skipping archetype hydration", slog.String("error", err.Error()))
		return
	}
	byHandle := make(map[string]*string, len(profiles))
	for _, p := range profiles {
		if a := models.NormalizeArchetype(deref(p.Archetype)); a != nil {
			byHandle[p.Username] = a
		}
	}
	for _, p := range posts {
		if p.Name != nil {
			p.AuthorArchetype = byHandle[strings.TrimSpace(*p.Name)]
		}
	}
}

// Devs lists the newest users that have a public profile.
func (s *FeedService) Devs(ctx context.Context) (*DevRoster, error) {
	users, err := s.users.ListRecent(ctx, devRosterSize)
	if errors.Is(err, models.ErrNotConfigured) {
		return &DevRoster{Devs: []models.DevProfile{}}, nil
	}
	if err != nil {
		middleware.Logger.DebugContext(ctx, "skipping dev roster", slog.String("error", err.Error()))
		return &DevRoster{Devs: []models.DevProfile{}, Configured: true}, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	profiles, err := s.profiles.ListPublicByUserIDs(ctx, ids)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "skipping dev roster profiles", slog.String("error", err.Error()))
		profiles = nil
	}
	byUser := make(map[string]*models.UserInfo, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	devs := make([]models.DevProfile, 0, len(users))
	for _, u := range users {
		p, ok := byUser[u.ID]
		if !ok {
			continue
		}
		devs = append(devs, models.DevProfile{
			UserID:    u.ID,
			Name:      u.Name,
			Username:  p.Username,
			PhotoURL:  p.PhotoURL,
			Bio:       p.Bio,
			Archetype: models.NormalizeArchetype(deref(p.Archetype)),
			JoinedAt:  u.CreatedAt,
		})
	}
	return &DevRoster{Devs: devs, Configured: true}, nil
}

func totalCreds(posts []*models.Post) int {
	total := 0
	for _, p := range posts {
		total += p.StreetCredsCount
	}
	return total
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
