package cli

import (
	"sudonet/internal/config"
	"sudonet/internal/database"
	"sudonet/internal/notifications"
	"sudonet/internal/repository"
	"sudonet/internal/service"
	"sudonet/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer as the terminal client uses it. A nil db or
// an incomplete config leaves every service in not-configured mode.
type Services struct {
	Credentials   *service.CredentialService
	Posts         *service.PostService
	Comments      *service.CommentService
	StreetCreds   *service.StreetCredService
	Feed          *service.FeedService
	Profiles      *service.ProfileService
	Store         *storage.Store
	Notifier      *notifications.Notifier
	Fingerprinter *service.Fingerprinter
	Realtime      bool
}

func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	db = database.Backend(cfg, db)
	users := repository.NewUserRepository(db)
	profiles := repository.NewUserInfoRepository(db)
	posts := repository.NewPostRepository(db)
	store := storage.New(cfg)
	notifier := notifications.NewNotifier(rdb)

	return &Services{
		Credentials:   service.NewCredentialService(users, profiles, rdb, cfg.JWTSecret),
		Posts:         service.NewPostService(posts, notifier),
		Comments:      service.NewCommentService(repository.NewCommentRepository(db), notifier),
		StreetCreds:   service.NewStreetCredService(repository.NewStreetCredRepository(db), notifier),
		Feed:          service.NewFeedService(posts, profiles, users),
		Profiles:      service.NewProfileService(profiles, users, store),
		Store:         store,
		Notifier:      notifier,
		Fingerprinter: service.NewFingerprinter(cfg.FingerprintSecret),
		Realtime:      rdb != nil,
	}
}
