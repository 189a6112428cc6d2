package seed

import (
	"context"
	"fmt"
	"log"

	"sudonet/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumPosts       int
	MaxComments    int
	MaxStreetCreds int
	MaxViews       int
}

// Presets are named Options for common demo shapes.
var Presets = map[string]Options{
	"quiet":  {NumUsers: 5, NumPosts: 10, MaxComments: 2, MaxStreetCreds: 3, MaxViews: 20},
	"busy":   {NumUsers: 50, NumPosts: 200, MaxComments: 8, MaxStreetCreds: 25, MaxViews: 500},
	"viral":  {NumUsers: 200, NumPosts: 500, MaxComments: 40, MaxStreetCreds: 150, MaxViews: 5000},
	"ghosts": {NumUsers: 0, NumPosts: 30, MaxComments: 3, MaxStreetCreds: 5, MaxViews: 50},
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Posts       int
	Comments    int
	StreetCreds int
}

type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll deletes every row, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	for _, model := range []any{&models.StreetCred{}, &models.Comment{}, &models.Post{}, &models.UserInfo{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// ApplyPreset runs the named preset.
func (s *Seeder) ApplyPreset(ctx context.Context, name string) (*Summary, error) {
	opts, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return s.Run(ctx, opts)
}

// Run creates users, then posts, then engagement on those posts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	users, err := s.SeedUsers(ctx, opts.NumUsers)
	if err != nil {
		return nil, err
	}
	log.Printf("✓ %d users created", len(users))

	posts, err := s.SeedPosts(ctx, users, opts.NumPosts)
	if err != nil {
		return nil, err
	}
	log.Printf("✓ %d posts created", len(posts))

	summary, err := s.SeedEngagement(ctx, users, posts, opts)
	if err != nil {
		return nil, err
	}
	summary.Users = len(users)
	summary.Posts = len(posts)
	log.Printf("✓ %d comments, %d street creds", summary.Comments, summary.StreetCreds)
	return summary, nil
}

func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, handle, err := s.factory.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		if i < 3 {
			log.Printf("   login: %s / %s", handle, DefaultPassword)
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts writes n posts. About one in five is anonymous, and all are
// anonymous when there are no users.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		var author *models.User
		if len(users) > 0 && s.factory.rng.Intn(5) > 0 {
			author = users[s.factory.rng.Intn(len(users))]
		}
		post, err := s.factory.CreatePost(ctx, author)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedEngagement adds comments, street creds and views to every post.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, opts Options) (*Summary, error) {
	summary := &Summary{}
	rng := s.factory.rng

	for _, post := range posts {
		comments := randUpTo(rng.Intn, opts.MaxComments)
		for i := 0; i < comments; i++ {
			var author *models.User
			if len(users) > 0 {
				author = users[rng.Intn(len(users))]
			}
			if _, err := s.factory.CreateComment(ctx, post, author); err != nil {
				return nil, err
			}
			summary.Comments++
		}

		creds := randUpTo(rng.Intn, opts.MaxStreetCreds)
		for i := 0; i < creds; i++ {
			if err := s.factory.GiveStreetCred(ctx, post, fmt.Sprintf("seed-%04d", i)); err != nil {
				return nil, err
			}
			summary.StreetCreds++
		}

		if views := randUpTo(rng.Intn, opts.MaxViews); views > 0 {
			if err := s.factory.SetViews(ctx, post, views); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}

// randUpTo returns a value in [0, limit], or 0 when limit is not positive.
func randUpTo(intn func(int) int, limit int) int {
	if limit <= 0 {
		return 0
	}
	return intn(limit + 1)
}
