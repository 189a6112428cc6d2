package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	FeedGenerationKey = "feed:gen"
	FeedKeyPrefix     = "feed:%d:%s"
	PostKeyPrefix     = "post:%s"
	ProfileKeyPrefix  = "profile:%s"
	BlacklistPrefix   = "blacklist:%s"
)

const (
	FeedTTL    = 30 * time.Second
	PostTTL    = 5 * time.Minute
	ProfileTTL = 5 * time.Minute
)

// feedGeneration is bumped on every post change so stale list keys are never read again.
func feedGeneration(ctx context.Context) int64 {
	if client == nil {
		return 0
	}
	gen, err := client.Get(ctx, FeedGenerationKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// FeedKey scopes a feed query string to the current feed generation.
func FeedKey(ctx context.Context, query string) string {
	return fmt.Sprintf(FeedKeyPrefix, feedGeneration(ctx), query)
}

func PostKey(postID string) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateFeed retires every cached feed list.
func InvalidateFeed(ctx context.Context) {
	if client != nil {
		client.Incr(ctx, FeedGenerationKey)
	}
}

// InvalidatePost drops the cached post and every feed list that may embed it.
func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
	InvalidateFeed(ctx)
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}
