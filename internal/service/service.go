// Package service holds the application's business logic between the HTTP
// and CLI front ends and the repositories.
package service

import (
	"context"
	"log/slog"

	"sudonet/internal/cache"
	"sudonet/internal/middleware"
	"sudonet/internal/notifications"
)

// ChangePublisher receives advisory change notifications.
type ChangePublisher interface {
	Publish(ctx context.Context, channel string, event notifications.Event) error
}

// Row change kinds reported in posts_changed payloads.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
)

// PostChange is the payload of a posts_changed event. Subscribers only use it
// as a hint to re-fetch.
type PostChange struct {
	Table string `json:"table"`
	Event string `json:"event"`
	ID    string `json:"id"`
}

// ReactionUpdate carries the authoritative street cred count after a toggle.
type ReactionUpdate struct {
	PostID           string `json:"post_id"`
	StreetCredsCount int    `json:"street_creds_count"`
}

// postsChanged drops cached post data and tells subscribers to re-fetch.
func postsChanged(ctx context.Context, pub ChangePublisher, kind, postID string) {
	cache.InvalidatePost(ctx, postID)
	if pub == nil {
		return
	}
	err := pub.Publish(ctx, notifications.PostsChannel, notifications.Event{
		Type:    notifications.EventPostsChanged,
		Payload: PostChange{Table: "posts", Event: kind, ID: postID},
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish posts change",
			slog.String("post_id", postID), slog.String("error", err.Error()))
	}
}
