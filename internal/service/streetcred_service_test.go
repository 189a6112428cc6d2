package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"sudonet/internal/models"
	"sudonet/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreetCredService_ToggleAlternates(t *testing.T) {
	repos := newTestRepos(t)
	pub := &recordingPublisher{}
	svc := NewStreetCredService(repos.creds, pub)
	ctx := context.Background()

	p := repos.seedPost(t, time.Now(), postSeed{title: "rep"})

	out, err := svc.Toggle(ctx, p.ID, "fp-1")
	require.NoError(t, err)
	assert.True(t, out.Marked)
	assert.Equal(t, 1, out.Count)

	marked, err := svc.Status(ctx, p.ID, "fp-1")
	require.NoError(t, err)
	assert.True(t, marked)
	svc.Wait()

	out, err = svc.Toggle(ctx, p.ID, "fp-1")
	require.NoError(t, err)
	assert.False(t, out.Marked)
	assert.Equal(t, 0, out.Count)

	svc.Wait()
	updates := pub.ofType(notifications.EventPostReactionUpdated)
	require.Len(t, updates, 2)
	for _, u := range updates {
		assert.Equal(t, p.ID, u.Payload.(ReactionUpdate).PostID)
	}
	assert.Equal(t, 1, updates[0].Payload.(ReactionUpdate).StreetCredsCount)
	assert.Equal(t, 0, updates[1].Payload.(ReactionUpdate).StreetCredsCount)
	assert.Len(t, pub.ofType(notifications.EventPostsChanged), 2)
}

func TestStreetCredService_RequestersAreIndependent(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStreetCredService(repos.creds, nil)
	ctx := context.Background()

	p := repos.seedPost(t, time.Now(), postSeed{title: "rep"})
	for _, fp := range []string{"a", "b", "c"} {
		_, err := svc.Toggle(ctx, p.ID, fp)
		require.NoError(t, err)
	}
	out, err := svc.Toggle(ctx, p.ID, "b")
	require.NoError(t, err)
	assert.False(t, out.Marked)
	assert.Equal(t, 2, out.Count)

	count, err := repos.creds.Count(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStreetCredService_Validation(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewStreetCredService(repos.creds, nil)

	_, err := svc.Toggle(context.Background(), "p1", "  ")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = svc.Toggle(context.Background(), "missing", "fp")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestFingerprinter_Requester(t *testing.T) {
	f := NewFingerprinter("secret")

	assert.Equal(t, "client-fp", f.Requester(" client-fp ", "1.2.3.4", "curl"))

	long := strings.Repeat("a", 100)
	hashed := f.Requester(long, "", "")
	assert.Len(t, hashed, 32)
	assert.NotEqual(t, hashed, f.Requester(long+"b", "", ""))

	runes := strings.Repeat("é", 40)
	got := f.Requester(runes, "", "")
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 32)
	assert.Equal(t, "ネオン", f.Requester("ネオン", "", ""))

	derived := f.Requester("", "1.2.3.4", "curl/8")
	assert.Len(t, derived, 32)
	assert.Equal(t, derived, f.Requester("", "1.2.3.4", "curl/8"))
	assert.NotEqual(t, derived, f.Requester("", "1.2.3.5", "curl/8"))
	assert.NotEqual(t, derived, NewFingerprinter("other").Requester("", "1.2.3.4", "curl/8"))
}

func TestNewFingerprinter_OversizedKey(t *testing.T) {
	key := make([]byte, 200)
	f := NewFingerprinter(string(key))
	assert.Len(t, f.Requester("", "ip", "ua"), 32)
}
