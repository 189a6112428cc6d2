// Package seed creates demo data for development databases. Rows are
// written through the repositories so the post counters stay consistent.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"sudonet/internal/models"
	"sudonet/internal/repository"
	"sudonet/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// SeedOptions tune the generated data.
type SeedOptions struct {
	// MaxDays spreads post timestamps over this many days back.
	MaxDays int
	// Random seeds the fakers; zero means time-based.
	Random int64
}

// Factory builds domain entities and persists them.
type Factory struct {
	db       *gorm.DB
	opts     SeedOptions
	rng      *rand.Rand
	faker    *gofakeit.Faker
	users    repository.UserRepository
	profiles repository.UserInfoRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	creds    repository.StreetCredRepository
}

func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	seed := opts.Random
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(seed))
	return &Factory{
		db:       db,
		opts:     opts,
		rng:      rng,
		faker:    gofakeit.New(seed),
		users:    repository.NewUserRepository(db),
		profiles: repository.NewUserInfoRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		creds:    repository.NewStreetCredRepository(db),
	}
}

// Handle returns a login handle for a display name: lowercase, no spaces,
// with a numeric suffix to keep it unique.
func (f *Factory) Handle(name string) string {
	base := strings.ToLower(strings.Join(strings.Fields(name), "_"))
	return fmt.Sprintf("%s%d", base, f.faker.Number(100, 999))
}

// CreateUser persists a user and their public profile. The returned handle
// logs in with DefaultPassword.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.UserInfo)) (*models.User, string, error) {
	name := f.faker.FirstName() + " " + f.faker.LastName()
	handle := f.Handle(name)

	user := &models.User{
		Name:         name,
		UsernameHash: service.Digest(handle),
		PasswordHash: service.Digest(DefaultPassword),
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	archetypes := models.Archetypes()
	info := &models.UserInfo{
		UserID:    user.ID,
		Username:  name,
		Bio:       ptr(f.faker.HackerPhrase()),
		About:     ptr(f.faker.Paragraph(1, 2, 12, " ")),
		City:      ptr(f.faker.City()),
		Country:   ptr(f.faker.Country()),
		GithubURL: ptr("https://github.com/" + handle),
		Archetype: ptr(archetypes[f.rng.Intn(len(archetypes))].Key),
		IsPublic:  f.rng.Intn(10) > 0,
	}
	for _, override := range overrides {
		override(info)
	}
	if _, _, err := f.profiles.CreateIfAbsent(ctx, info); err != nil {
		return nil, "", fmt.Errorf("create profile: %w", err)
	}
	return user, handle, nil
}

// BuildPost returns an unsaved post by author with a timestamp somewhere in
// the last MaxDays days. A nil author makes an anonymous post.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:   f.faker.HackerPhrase(),
		Content: f.faker.Paragraph(1, 3, 14, "\n"),
	}
	if author != nil {
		post.Name = ptr(author.Name)
	}
	if f.rng.Intn(4) == 0 {
		post.ImageURL = ptr(fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()))
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	post.CreatedAt = time.Now().Add(-time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment adds a comment to post; the repository bumps the counter.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:  post.ID,
		Content: f.faker.Sentence(f.rng.Intn(12) + 3),
	}
	if author != nil {
		comment.Name = ptr(author.Name)
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// GiveStreetCred marks post from a synthetic requester fingerprint.
func (f *Factory) GiveStreetCred(ctx context.Context, post *models.Post, requester string) error {
	res, err := f.creds.Toggle(ctx, post.ID, requester)
	if err != nil {
		return fmt.Errorf("give street cred: %w", err)
	}
	if !res.Marked {
		// The requester already held a mark; put it back.
		if _, err := f.creds.Toggle(ctx, post.ID, requester); err != nil {
			return fmt.Errorf("give street cred: %w", err)
		}
	}
	return nil
}

// SetViews overwrites a post's view counter; views have no backing rows.
func (f *Factory) SetViews(ctx context.Context, post *models.Post, views int) error {
	return f.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("views_count", views).Error
}

func ptr[T any](v T) *T {
	return &v
}
