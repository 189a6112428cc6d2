package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sudonet/internal/models"
	"sudonet/internal/notifications"
	"sudonet/internal/repository"
	"sudonet/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notifications.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPublisher) ofType(eventType string) []notifications.Event {
	var out []notifications.Event
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testRepos struct {
	db       *gorm.DB
	posts    repository.PostRepository
	comments repository.CommentRepository
	creds    repository.StreetCredRepository
	users    repository.UserRepository
	profiles repository.UserInfoRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return reposFor(db)
}

// reposFor builds repositories over db; a nil db yields unconfigured repositories.
func reposFor(db *gorm.DB) *testRepos {
	return &testRepos{
		db:       db,
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		creds:    repository.NewStreetCredRepository(db),
		users:    repository.NewUserRepository(db),
		profiles: repository.NewUserInfoRepository(db),
	}
}

func strPtr(s string) *string { return &s }

func (r *testRepos) seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, UsernameHash: Digest(name + "-login"), PasswordHash: Digest("password123")}
	require.NoError(t, r.users.Create(context.Background(), u))
	return u
}

func (r *testRepos) seedProfile(t *testing.T, userID, username string, public bool, archetype string) *models.UserInfo {
	t.Helper()
	p := &models.UserInfo{UserID: userID, Username: username, IsPublic: public}
	if archetype != "" {
		p.Archetype = &archetype
	}
	require.NoError(t, r.db.Create(p).Error)
	return p
}

type postSeed struct {
	name     string
	title    string
	creds    int
	comments int
	views    int
	age      time.Duration
}

func (r *testRepos) seedPost(t *testing.T, now time.Time, s postSeed) *models.Post {
	t.Helper()
	p := &models.Post{Title: s.title, Content: "content of " + s.title}
	if s.name != "" {
		p.Name = strPtr(s.name)
	}
	require.NoError(t, r.db.Create(p).Error)
	require.NoError(t, r.db.Model(p).UpdateColumns(map[string]any{
		"street_creds_count": s.creds,
		"comments_count":     s.comments,
		"views_count":        s.views,
		"created_at":         now.Add(-s.age),
	}).Error)
	return p
}

// userInfoRepoStub overrides selected UserInfoRepository methods; the rest
// fall through to the embedded repository.
type userInfoRepoStub struct {
	repository.UserInfoRepository
	createIfAbsentFn  func(context.Context, *models.UserInfo) (*models.UserInfo, bool, error)
	upsertProcedureFn func(context.Context, *models.UserInfo) error
}

func (s *userInfoRepoStub) CreateIfAbsent(ctx context.Context, info *models.UserInfo) (*models.UserInfo, bool, error) {
	if s.createIfAbsentFn != nil {
		return s.createIfAbsentFn(ctx, info)
	}
	return s.UserInfoRepository.CreateIfAbsent(ctx, info)
}

func (s *userInfoRepoStub) UpsertProcedure(ctx context.Context, info *models.UserInfo) error {
	if s.upsertProcedureFn != nil {
		return s.upsertProcedureFn(ctx, info)
	}
	return s.UserInfoRepository.UpsertProcedure(ctx, info)
}
