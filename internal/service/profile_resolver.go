package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"sudonet/internal/cache"
	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/observability"
	"sudonet/internal/repository"
	"sudonet/internal/session"
)

// ResolveOutcome names how a profile request was answered.
type ResolveOutcome string

const (
	OutcomeFound    ResolveOutcome = "found"
	OutcomeOwner    ResolveOutcome = "owner_lookup"
	OutcomeCreated  ResolveOutcome = "created"
	OutcomeRedirect ResolveOutcome = "redirect"
	OutcomeNotFound ResolveOutcome = "not_found"
)

// ProfileView is the result of resolving a handle.
type ProfileView struct {
	Profile       *models.UserInfo      `json:"profile,omitempty"`
	ArchetypeInfo *models.ArchetypeInfo `json:"archetype_info,omitempty"`
	IsOwn         bool                  `json:"is_own"`
	Outcome       ResolveOutcome        `json:"outcome"`
	EditURL       string                `json:"edit_url,omitempty"`

	// Advisory only; callers must not branch on these.
	Diagnostic     string                `json:"diagnostic,omitempty"`
	DiagnosticKind models.StoreErrorKind `json:"diagnostic_kind,omitempty"`
}

// resolveRequest is the state shared by the strategies of one resolution.
type resolveRequest struct {
	handle string
	caller *session.Identity

	callerUser    *models.User
	callerUserErr error
	callerLoaded  bool
}

type resolveStrategy struct {
	name string
	run  func(ctx context.Context, req *resolveRequest) (*models.UserInfo, ResolveOutcome, error)
}

// ProfileResolver turns a handle into a profile by trying each strategy in order.
type ProfileResolver struct {
	profiles   repository.UserInfoRepository
	users      repository.UserRepository
	strategies []resolveStrategy
}

func NewProfileResolver(profiles repository.UserInfoRepository, users repository.UserRepository) *ProfileResolver {
	r := &ProfileResolver{profiles: profiles, users: users}
	r.strategies = []resolveStrategy{
		{name: "direct", run: r.directLookup},
		{name: "owner", run: r.ownerLookup},
		{name: "auto_create", run: r.autoCreate},
	}
	return r
}

// EditURL is where a caller is sent to set up the profile for handle.
func EditURL(handle string) string {
	return "/profile/" + url.PathEscape(handle) + "/edit"
}

// Resolve never returns another identity's data under the caller's name and
// only creates a profile for a handle the caller owns.
func (r *ProfileResolver) Resolve(ctx context.Context, caller *session.Identity, handle string) (*ProfileView, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, models.NewValidationError("Username is required")
	}

	span, ctx := observability.NewSpan(ctx, "ProfileResolver.Resolve", observability.AttrHandle.String(handle))
	defer span.End()

	req := &resolveRequest{handle: handle, caller: caller}
	var lastErr error
	for _, s := range r.strategies {
		profile, outcome, err := s.run(ctx, req)
		if errors.Is(err, models.ErrNotConfigured) {
			return nil, err
		}
		if err != nil {
			middleware.Logger.DebugContext(ctx, "profile strategy failed",
				slog.String("strategy", s.name),
				slog.String("handle", handle),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		if profile != nil {
			observability.ProfileResolutions.WithLabelValues(string(outcome)).Inc()
			span.AddAttributes(observability.AttrOutcome.String(string(outcome)))
			return newProfileView(profile, caller, outcome), nil
		}
	}

	if r.callerOwnsHandle(ctx, req) {
		observability.ProfileResolutions.WithLabelValues(string(OutcomeRedirect)).Inc()
		span.AddAttributes(observability.AttrOutcome.String(string(OutcomeRedirect)))
		return &ProfileView{Outcome: OutcomeRedirect, EditURL: EditURL(handle), IsOwn: true}, nil
	}

	kind := models.ClassifyStoreError(lastErr)
	if kind == models.StoreErrorNone {
		kind = models.StoreErrorNoRows
	}
	observability.ProfileResolutions.WithLabelValues(string(OutcomeNotFound)).Inc()
	span.AddAttributes(observability.AttrOutcome.String(string(OutcomeNotFound)))
	return &ProfileView{
		Outcome:        OutcomeNotFound,
		Diagnostic:     kind.Diagnostic(),
		DiagnosticKind: kind,
	}, nil
}

func newProfileView(p *models.UserInfo, caller *session.Identity, outcome ResolveOutcome) *ProfileView {
	p.Archetype = models.NormalizeArchetype(deref(p.Archetype))
	view := &ProfileView{Profile: p, IsOwn: caller.Owns(p.UserID), Outcome: outcome}
	if p.Archetype != nil {
		if info, ok := models.LookupArchetype(*p.Archetype); ok {
			view.ArchetypeInfo = &info
		}
	}
	return view
}

// directLookup finds the profile by handle. Private profiles are visible to
// their owner only.
func (r *ProfileResolver) directLookup(ctx context.Context, req *resolveRequest) (*models.UserInfo, ResolveOutcome, error) {
	var profile models.UserInfo
	err := cache.Aside(ctx, cache.ProfileKey(req.handle), &profile, cache.ProfileTTL, func() error {
		p, err := r.profiles.GetByUsername(ctx, req.handle)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if !profile.IsPublic && !req.caller.Owns(profile.UserID) {
		return nil, "", models.NewNotFoundError("Profile", req.handle)
	}
	return &profile, OutcomeFound, nil
}

// ownerLookup finds the caller's own profile when the handle is their display name.
func (r *ProfileResolver) ownerLookup(ctx context.Context, req *resolveRequest) (*models.UserInfo, ResolveOutcome, error) {
	if !r.callerOwnsHandle(ctx, req) {
		return nil, "", req.callerUserErr
	}
	p, err := r.profiles.GetByUserID(ctx, req.caller.UserID)
	if err != nil {
		return nil, "", err
	}
	return p, OutcomeOwner, nil
}

// autoCreate initialises a public profile for a caller visiting their own handle.
func (r *ProfileResolver) autoCreate(ctx context.Context, req *resolveRequest) (*models.UserInfo, ResolveOutcome, error) {
	if !r.callerOwnsHandle(ctx, req) {
		return nil, "", nil
	}
	p, created, err := r.profiles.CreateIfAbsent(ctx, &models.UserInfo{
		UserID:   req.caller.UserID,
		Username: req.handle,
		IsPublic: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create profile: %w", err)
	}
	if !created {
		return p, OutcomeOwner, nil
	}
	middleware.Logger.InfoContext(ctx, "profile initialised",
		slog.String("user_id", req.caller.UserID), slog.String("handle", req.handle))
	return p, OutcomeCreated, nil
}

// callerOwnsHandle reports whether the caller's display name equals the handle.
// The caller's user row is loaded once per request.
func (r *ProfileResolver) callerOwnsHandle(ctx context.Context, req *resolveRequest) bool {
	if !req.caller.Authenticated() {
		return false
	}
	if !req.callerLoaded {
		req.callerLoaded = true
		req.callerUser, req.callerUserErr = r.users.GetByID(ctx, req.caller.UserID)
	}
	if req.callerUser == nil {
		return false
	}
	return strings.TrimSpace(req.callerUser.Name) == req.handle
}
