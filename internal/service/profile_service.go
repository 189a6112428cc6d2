package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sudonet/internal/cache"
	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/observability"
	"sudonet/internal/repository"
	"sudonet/internal/session"
	"sudonet/internal/storage"
)

// PhotoUploadFailedNotice is reported when the profile saved without its new photo.
const PhotoUploadFailedNotice = "Failed to upload photo, but profile will be saved"

// Uploader writes an image to the object store.
type Uploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.Object, error)
}

// ProfileFields are the editable profile columns. Blank strings are stored as NULL.
type ProfileFields struct {
	Gender       string `json:"gender" form:"gender"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	Bio          string `json:"bio" form:"bio"`
	About        string `json:"about" form:"about"`
	GithubURL    string `json:"github_url" form:"github_url"`
	LinkedinURL  string `json:"linkedin_url" form:"linkedin_url"`
	TwitterURL   string `json:"twitter_url" form:"twitter_url"`
	InstagramURL string `json:"instagram_url" form:"instagram_url"`
	FacebookURL  string `json:"facebook_url" form:"facebook_url"`
	AddressLine1 string `json:"address_line1" form:"address_line1"`
	AddressLine2 string `json:"address_line2" form:"address_line2"`
	City         string `json:"city" form:"city"`
	State        string `json:"state" form:"state"`
	Country      string `json:"country" form:"country"`
	PostalCode   string `json:"postal_code" form:"postal_code"`
	Archetype    string `json:"archetype" form:"archetype"`
	IsPublic     *bool  `json:"is_public" form:"is_public"`
}

type UpdateProfileInput struct {
	Handle           string
	Fields           ProfileFields
	Photo            []byte
	PhotoContentType string
}

// UpdateProfileResult carries the saved row and an optional notice for the user.
type UpdateProfileResult struct {
	Profile *models.UserInfo `json:"profile"`
	Notice  string           `json:"notice,omitempty"`
}

type ProfileService struct {
	profiles repository.UserInfoRepository
	users    repository.UserRepository
	photos   Uploader
	resolver *ProfileResolver
	now      func() time.Time
}

func NewProfileService(
	profiles repository.UserInfoRepository,
	users repository.UserRepository,
	photos Uploader,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
		photos:   photos,
		resolver: NewProfileResolver(profiles, users),
		now:      time.Now,
	}
}

// Resolve looks up the profile for handle on behalf of caller.
func (s *ProfileService) Resolve(ctx context.Context, caller *session.Identity, handle string) (*ProfileView, error) {
	return s.resolver.Resolve(ctx, caller, handle)
}

// Archetypes lists the selectable archetypes in display order.
func (s *ProfileService) Archetypes() []models.ArchetypeInfo {
	return models.Archetypes()
}

// EditView returns the caller's profile under handle, creating it if the
// handle is still free.
func (s *ProfileService) EditView(ctx context.Context, caller *session.Identity, handle string) (*models.UserInfo, error) {
	handle = strings.TrimSpace(handle)
	if !caller.Authenticated() {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if handle == "" {
		return nil, models.NewValidationError("Username is required")
	}

	existing, err := s.profiles.GetByUsername(ctx, handle)
	switch {
	case err == nil:
		if !caller.Owns(existing.UserID) {
			return nil, models.NewForbiddenError("You can only edit your own profile")
		}
		return existing, nil
	case models.ErrorCode(err) != models.CodeNotFound:
		return nil, err
	}

	profile, _, err := s.profiles.CreateIfAbsent(ctx, &models.UserInfo{
		UserID:   caller.UserID,
		Username: handle,
		IsPublic: true,
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile saves the caller's profile under handle. A new photo is
// uploaded first; if that fails the rest of the profile is still saved.
func (s *ProfileService) UpdateProfile(ctx context.Context, caller *session.Identity, in UpdateProfileInput) (*UpdateProfileResult, error) {
	handle := strings.TrimSpace(in.Handle)
	span, ctx := observability.NewSpan(ctx, "ProfileService.UpdateProfile", observability.AttrHandle.String(handle))
	defer span.End()

	if !caller.Authenticated() {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if handle == "" {
		return nil, models.NewValidationError("Username is required")
	}

	f := in.Fields
	gender := optionalString(f.Gender)
	if gender != nil && !models.ValidGender(*gender) {
		return nil, models.NewValidationError("Invalid gender")
	}
	archetype := models.NormalizeArchetype(f.Archetype)
	if strings.TrimSpace(f.Archetype) != "" && archetype == nil {
		return nil, models.NewValidationError("Invalid archetype")
	}

	holder, err := s.profiles.GetByUsername(ctx, handle)
	if err == nil && !caller.Owns(holder.UserID) {
		return nil, models.NewForbiddenError("You can only edit your own profile")
	}
	if err != nil && models.ErrorCode(err) != models.CodeNotFound {
		span.SetError(err)
		return nil, err
	}

	result := &UpdateProfileResult{}
	var photoURL *string
	if len(in.Photo) > 0 {
		obj, err := s.uploadPhoto(ctx, caller.UserID, in.Photo, in.PhotoContentType)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "profile photo upload failed",
				slog.String("user_id", caller.UserID), slog.String("error", err.Error()))
			result.Notice = PhotoUploadFailedNotice
		} else {
			photoURL = &obj.URL
		}
	}

	isPublic := true
	if f.IsPublic != nil {
		isPublic = *f.IsPublic
	}
	info := &models.UserInfo{
		UserID:       caller.UserID,
		Username:     handle,
		PhotoURL:     photoURL,
		Gender:       gender,
		Email:        optionalString(f.Email),
		Phone:        optionalString(f.Phone),
		Bio:          optionalString(f.Bio),
		About:        optionalString(f.About),
		GithubURL:    optionalString(f.GithubURL),
		LinkedinURL:  optionalString(f.LinkedinURL),
		TwitterURL:   optionalString(f.TwitterURL),
		InstagramURL: optionalString(f.InstagramURL),
		FacebookURL:  optionalString(f.FacebookURL),
		AddressLine1: optionalString(f.AddressLine1),
		AddressLine2: optionalString(f.AddressLine2),
		City:         optionalString(f.City),
		State:        optionalString(f.State),
		Country:      optionalString(f.Country),
		PostalCode:   optionalString(f.PostalCode),
		Archetype:    archetype,
		IsPublic:     isPublic,
	}

	previous, _ := s.profiles.GetByUserID(ctx, caller.UserID)
	if err := s.save(ctx, info); err != nil {
		span.SetError(err)
		return nil, err
	}

	cache.InvalidateProfile(ctx, handle)
	if previous != nil && previous.Username != handle {
		cache.InvalidateProfile(ctx, previous.Username)
	}
	// Feed lists embed author archetypes.
	cache.InvalidateFeed(ctx)

	saved, err := s.profiles.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	result.Profile = saved
	return result, nil
}

// save writes through the stored procedure, falling back to a plain
// select-then-update-or-insert where the procedure is unavailable.
func (s *ProfileService) save(ctx context.Context, info *models.UserInfo) error {
	err := s.profiles.UpsertProcedure(ctx, info)
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotConfigured) {
		return err
	}
	middleware.Logger.DebugContext(ctx, "profile procedure failed, using fallback",
		slog.String("kind", string(models.ClassifyStoreError(err))),
		slog.String("error", err.Error()))
	return s.profiles.UpsertFallback(ctx, info)
}

func (s *ProfileService) uploadPhoto(ctx context.Context, userID string, content []byte, contentType string) (*storage.Object, error) {
	if s.photos == nil {
		return nil, models.NewNotConfiguredError()
	}
	return s.photos.Upload(ctx, storage.UploadInput{
		Bucket:      storage.BucketProfilePhotos,
		Key:         storage.ProfilePhotoKey(userID, s.now()),
		ContentType: contentType,
		Content:     content,
		Upsert:      true,
	})
}
