package service

import (
	"context"
	"errors"
	"testing"

	"sudonet/internal/models"
	"sudonet/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestDigest(t *testing.T) {
	assert.Equal(t, "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8", Digest("password"))
	assert.Len(t, Digest(""), 64)
}

func TestCredentialService_RegisterValidation(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCredentialService(repos.users, repos.profiles, nil, testSecret)

	tests := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"missing name", RegisterInput{Username: "alice", Password: "password123"}, "Name is required"},
		{"missing username", RegisterInput{Name: "Alice", Password: "password123"}, "Username is required"},
		{"short username", RegisterInput{Name: "Alice", Username: "al", Password: "password123"}, "Username must be at least 3 characters"},
		{"missing password", RegisterInput{Name: "Alice", Username: "alice"}, "Password is required"},
		{"short password", RegisterInput{Name: "Alice", Username: "alice", Password: "short"}, "Password must be at least 8 characters"},
		{"mismatch", RegisterInput{Name: "Alice", Username: "alice", Password: "password123", ConfirmPassword: "password124"}, "Passwords do not match"},
		{"bad archetype", RegisterInput{Name: "Alice", Username: "alice", Password: "password123", Archetype: "samurai"}, "Invalid archetype"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestCredentialService_RegisterBootstrapsProfile(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCredentialService(repos.users, repos.profiles, nil, testSecret)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Name:      "Alice",
		Username:  "alice",
		Password:  "password123",
		Archetype: "Netrunner",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, Digest("alice"), res.User.UsernameHash)
	assert.Equal(t, Digest("password123"), res.User.PasswordHash)

	profile, err := repos.profiles.GetByUserID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Username)
	assert.True(t, profile.IsPublic)
	require.NotNil(t, profile.Archetype)
	assert.Equal(t, "netrunner", *profile.Archetype)
}

func TestCredentialService_RegisterDuplicate(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCredentialService(repos.users, repos.profiles, nil, testSecret)
	ctx := context.Background()

	in := RegisterInput{Name: "Alice", Username: "alice", Password: "password123"}
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in)
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	assert.Equal(t, "Username already exists", err.Error())

	var count int64
	require.NoError(t, repos.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCredentialService_BootstrapFailureIsNotFatal(t *testing.T) {
	repos := newTestRepos(t)
	profiles := &userInfoRepoStub{
		UserInfoRepository: repos.profiles,
		createIfAbsentFn: func(context.Context, *models.UserInfo) (*models.UserInfo, bool, error) {
			return nil, false, errors.New("permission denied for table userinfo")
		},
	}
	svc := NewCredentialService(repos.users, profiles, nil, testSecret)

	res, err := svc.Register(context.Background(), RegisterInput{Name: "Bob", Username: "bobby", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.User.ID)
}

func TestCredentialService_Login(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCredentialService(repos.users, repos.profiles, nil, testSecret)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Identity.Name)

	_, err = svc.Login(ctx, "alice", "password124")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
	assert.Equal(t, "Invalid username or password", err.Error())

	// Digests are of the raw input, so case matters.
	_, err = svc.Login(ctx, "Alice", "password123")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	_, err = svc.Login(ctx, "", "password123")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestCredentialService_TokenRoundTripAndLogout(t *testing.T) {
	repos := newTestRepos(t)
	_, rdb := testutil.NewRedis(t)
	svc := NewCredentialService(repos.users, repos.profiles, rdb, testSecret)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	id, err := svc.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, "Alice", id.Name)
	assert.NotEmpty(t, id.JTI)

	user, err := svc.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	require.NoError(t, svc.Logout(ctx, id))
	_, err = svc.VerifyToken(ctx, res.Token)
	require.Error(t, err)
	assert.Equal(t, "Token has been revoked", err.Error())
}

func TestCredentialService_VerifyTokenRejectsForeignClaims(t *testing.T) {
	svc := NewCredentialService(nil, nil, nil, testSecret)
	ctx := context.Background()

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(jwt.MapClaims{"sub": "u1", "iss": TokenIssuer, "aud": TokenAudience}, "other-secret")},
		{"wrong issuer", sign(jwt.MapClaims{"sub": "u1", "iss": "elsewhere", "aud": TokenAudience}, testSecret)},
		{"wrong audience", sign(jwt.MapClaims{"sub": "u1", "iss": TokenIssuer, "aud": "elsewhere"}, testSecret)},
		{"missing subject", sign(jwt.MapClaims{"iss": TokenIssuer, "aud": TokenAudience}, testSecret)},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyToken(ctx, tt.token)
			require.Error(t, err)
			assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
		})
	}
}

func TestCredentialService_NotConfigured(t *testing.T) {
	repos := reposFor(nil)
	svc := NewCredentialService(repos.users, repos.profiles, nil, testSecret)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Alice", Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, models.ErrNotConfigured)
}
