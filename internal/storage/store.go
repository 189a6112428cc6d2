// Package storage is a bucketed object store for uploaded images, kept on
// local disk and served back under public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sudonet/internal/config"
	"sudonet/internal/models"

	"github.com/google/uuid"
)

// Buckets.
const (
	BucketPostImages    = "post-images"
	BucketProfilePhotos = "profile-photos"
)

const (
	DefaultMaxUploadSizeMB = 5
	ProfilePhotoMaxBytes   = 5 * 1024 * 1024
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9][A-Za-z0-9._-]*)*$`)

// Object describes a stored upload.
type Object struct {
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	URL     string `json:"url"`
	WebPURL string `json:"webp_url"`
	Size    int64  `json:"size"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// UploadInput is one object write. An empty Key gets a generated one.
type UploadInput struct {
	Bucket      string
	Key         string
	ContentType string
	Content     []byte
	Upsert      bool
}

// Store writes objects below dir and builds URLs from publicURL.
type Store struct {
	dir       string
	publicURL string
	limits    map[string]int64
}

// New builds a store from configuration. A missing public URL leaves the
// store unconfigured; every upload then fails with ErrNotConfigured.
func New(cfg *config.Config) *Store {
	maxMB := DefaultMaxUploadSizeMB
	if cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &Store{
		dir:       cfg.StorageDir,
		publicURL: strings.TrimRight(cfg.StoragePublicURL, "/"),
		limits: map[string]int64{
			BucketPostImages:    int64(maxMB) * 1024 * 1024,
			BucketProfilePhotos: ProfilePhotoMaxBytes,
		},
	}
}

func (s *Store) Configured() bool {
	return s != nil && s.publicURL != "" && s.dir != ""
}

// MaxBytes returns the upload limit for bucket.
func (s *Store) MaxBytes(bucket string) int64 {
	return s.limits[bucket]
}

// PostImageKey generates a key for a new post image.
func PostImageKey() string {
	return "posts/" + uuid.NewString()
}

// ProfilePhotoKey generates a key for a user's profile photo.
func ProfilePhotoKey(userID string, now time.Time) string {
	return fmt.Sprintf("%s-%d", userID, now.UnixMilli())
}

// Upload validates and normalizes the image, then writes the JPEG and WebP renditions.
func (s *Store) Upload(_ context.Context, in UploadInput) (*Object, error) {
	if !s.Configured() {
		return nil, models.NewNotConfiguredError()
	}
	limit, ok := s.limits[in.Bucket]
	if !ok {
		return nil, models.NewValidationError("Unknown bucket")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > limit {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", limit/(1024*1024)))
	}

	key := in.Key
	if key == "" {
		key = uuid.NewString()
	}
	if !validKey(key) {
		return nil, models.NewValidationError("Invalid object key")
	}

	img, err := normalizeImage(in.Content, in.ContentType)
	if err != nil {
		return nil, err
	}

	jpgPath := s.objectPath(in.Bucket, key+".jpg")
	webpPath := s.objectPath(in.Bucket, key+".webp")
	if !in.Upsert {
		if _, statErr := os.Stat(jpgPath); statErr == nil {
			return nil, models.NewConflictError("The resource already exists")
		}
	}

	if err := writeFile(jpgPath, img.JPEG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeFile(webpPath, img.WebP); err != nil {
		_ = os.Remove(jpgPath)
		return nil, models.NewInternalError(err)
	}

	return &Object{
		Bucket:  in.Bucket,
		Key:     key,
		URL:     s.PublicURL(in.Bucket, key+".jpg"),
		WebPURL: s.PublicURL(in.Bucket, key+".webp"),
		Size:    int64(len(img.JPEG)),
		Width:   img.Width,
		Height:  img.Height,
	}, nil
}

// PublicURL returns the URL an object is served at.
func (s *Store) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/storage/%s/%s", s.publicURL, bucket, name)
}

// Resolve maps a served object name to its file on disk.
func (s *Store) Resolve(bucket, name string) (string, error) {
	if _, ok := s.limits[bucket]; !ok || !validKey(name) {
		return "", models.NewValidationError("Invalid object path")
	}
	path := s.objectPath(bucket, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", models.NewNotFoundError("Object", bucket+"/"+name)
		}
		return "", models.NewInternalError(err)
	}
	return path, nil
}

func (s *Store) objectPath(bucket, name string) string {
	return filepath.Join(s.dir, bucket, filepath.FromSlash(name))
}

func validKey(key string) bool {
	return len(key) <= 256 && keyPattern.MatchString(key) && !strings.Contains(key, "..")
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
