package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sudonet/internal/cache"
	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/repository"
	"sudonet/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TokenIssuer   = "sudonet-api"
	TokenAudience = "sudonet-client"

	minUsernameLen = 3
	minPasswordLen = 8
)

// revokedTokenTTL bounds how long a revoked jti is remembered.
const revokedTokenTTL = 30 * 24 * time.Hour

// Digest returns the lowercase hex SHA-256 of s. Credentials are only ever
// stored and compared in this form.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type CredentialService struct {
	users    repository.UserRepository
	profiles repository.UserInfoRepository
	redis    *redis.Client
	secret   []byte
}

type RegisterInput struct {
	Name            string
	Username        string
	Password        string
	ConfirmPassword string
	Archetype       string
}

// AuthResult is a signed-in user and their bearer token.
type AuthResult struct {
	User     *models.User
	Token    string
	Identity *session.Identity
}

func NewCredentialService(
	users repository.UserRepository,
	profiles repository.UserInfoRepository,
	rdb *redis.Client,
	jwtSecret string,
) *CredentialService {
	return &CredentialService{
		users:    users,
		profiles: profiles,
		redis:    rdb,
		secret:   []byte(jwtSecret),
	}
}

// Register creates a user from digests of the credentials and bootstraps
// their public profile. A failed bootstrap is logged, not returned.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, models.NewValidationError("Name is required")
	case strings.TrimSpace(in.Username) == "":
		return nil, models.NewValidationError("Username is required")
	case len(in.Username) < minUsernameLen:
		return nil, models.NewValidationError("Username must be at least 3 characters")
	case in.Password == "":
		return nil, models.NewValidationError("Password is required")
	case len(in.Password) < minPasswordLen:
		return nil, models.NewValidationError("Password must be at least 8 characters")
	case in.ConfirmPassword != "" && in.ConfirmPassword != in.Password:
		return nil, models.NewValidationError("Passwords do not match")
	}

	archetype := models.NormalizeArchetype(in.Archetype)
	if strings.TrimSpace(in.Archetype) != "" && archetype == nil {
		return nil, models.NewValidationError("Invalid archetype")
	}

	usernameHash := Digest(in.Username)
	exists, err := s.users.ExistsByUsernameHash(ctx, usernameHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("Username already exists")
	}

	user := &models.User{
		Name:         name,
		UsernameHash: usernameHash,
		PasswordHash: Digest(in.Password),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &models.UserInfo{
		UserID:    user.ID,
		Username:  name,
		Archetype: archetype,
		IsPublic:  true,
	}
	if _, _, err := s.profiles.CreateIfAbsent(ctx, profile); err != nil {
		middleware.Logger.WarnContext(ctx, "profile bootstrap failed",
			slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}

	return s.signIn(user)
}

// Login matches both credential digests exactly.
func (s *CredentialService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	user, err := s.users.GetByCredentials(ctx, Digest(username), Digest(password))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return s.signIn(user)
}

// Logout revokes the token's jti. Without Redis it is a no-op.
func (s *CredentialService) Logout(ctx context.Context, id *session.Identity) error {
	if s.redis == nil || id == nil || id.JTI == "" {
		return nil
	}
	return s.redis.Set(ctx, cache.BlacklistKey(id.JTI), "1", revokedTokenTTL).Err()
}

// CurrentUser loads the user behind id.
func (s *CredentialService) CurrentUser(ctx context.Context, id *session.Identity) (*models.User, error) {
	if !id.Authenticated() {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	return s.users.GetByID(ctx, id.UserID)
}

func (s *CredentialService) signIn(user *models.User) (*AuthResult, error) {
	token, jti, err := s.IssueToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{
		User:     user,
		Token:    token,
		Identity: &session.Identity{UserID: user.ID, Name: user.Name, Token: token, JTI: jti},
	}, nil
}

// IssueToken signs a bearer token for user. Tokens carry no expiry.
func (s *CredentialService) IssueToken(user *models.User) (string, string, error) {
	if len(s.secret) == 0 {
		return "", "", fmt.Errorf("JWT secret not configured")
	}
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"iat":  time.Now().Unix(),
		"jti":  jti,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

var errInvalidToken = errors.New("invalid token")

// VerifyToken checks signature, issuer, audience and revocation.
func (s *CredentialService) VerifyToken(ctx context.Context, tokenString string) (*session.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	if issuer, _ := claims["iss"].(string); issuer != TokenIssuer {
		return nil, models.NewUnauthorizedError("Invalid token issuer")
	}
	if audience, _ := claims["aud"].(string); audience != TokenAudience {
		return nil, models.NewUnauthorizedError("Invalid token audience")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	name, _ := claims["name"].(string)
	jti, _ := claims["jti"].(string)

	if jti != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, cache.BlacklistKey(jti)).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return &session.Identity{UserID: sub, Name: name, Token: tokenString, JTI: jti}, nil
}
