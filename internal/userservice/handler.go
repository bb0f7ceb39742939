package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/ktruong/campusblog/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
)

// BlobResolver turns a stored object key into a publicly reachable URL.
type BlobResolver interface {
	PublicURL(key string) string
}

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, blobs BlobResolver) *UserService {
	return &UserService{
		m:     newUserModel(db),
		mb:    mb,
		c:     c,
		blobs: blobs,
	}
}

// CreateUser creates a new user account and publishes a user.created event that
// the mail worker turns into a welcome/activation email.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*string, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username:    username,
		Email:       email,
		DisplayName: username,
		Password:    Password{Plain: password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	token, err := s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Email string
		Name  string
		Token string
	}{
		Email: u.Email,
		Name:  u.DisplayName,
		Token: token.Plain,
	}

	emailData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	err = s.mb.Publish(ctx, emailData, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, err
	}

	return &token.Plain, nil
}

// ActivateUser activates a user account using the token, deletes the token and
// grants the blog:write permission, all within one transaction.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUser(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.activateUserAccount(tx, ctx, user.ID, user.Version)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = s.m.deleteToken(tx, ctx, user.ID, TokenScopeActivate)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = s.m.addUserPermission(tx, ctx, user.ID, PermissionWriteBlog)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// LoginUser logs in a user and returns the access token and refresh token.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	dbToken, err := s.m.getAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if dbToken != nil {
		// The stored hashes cannot be handed back as plain tokens, so an
		// existing pair is always replaced.
		err = s.m.deleteAuthToken(tx, ctx, user.ID)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return authToken, nil
}

// GetUserByAccessToken resolves the user that owns the given access token. Hits
// the cache first; entries live for the cache default TTL.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)
	key := common.CacheKeyUserByAccessToken(hash)

	if cached, ok := s.c.Get(key); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user)

	return user, nil
}

// LogoutUser deletes the user's auth token pair and evicts the cached identity.
func (s *UserService) LogoutUser(ctx context.Context, userID uuid.UUID, token string) error {
	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.deleteAuthToken(tx, ctx, userID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if token != "" {
		s.c.Delete(common.CacheKeyUserByAccessToken(hashToken(token)))
	}

	return nil
}

// GetProfile returns the public view of a user.
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	user, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}

	if user.AvatarKey != "" && s.blobs != nil {
		p.AvatarURL = s.blobs.PublicURL(user.AvatarKey)
	}

	return p, nil
}

// UpdateProfile changes the display name and, when avatarKey is non-empty, the avatar.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarKey string) error {
	v := common.NewValidator()
	validateDisplayName(v, displayName)
	if !v.Valid() {
		return v.ValidationError()
	}

	if avatarKey == "" {
		user, err := s.m.getUserByID(ctx, id)
		if err != nil {
			return err
		}
		avatarKey = user.AvatarKey
	}

	return s.m.updateProfile(ctx, id, displayName, avatarKey)
}

func (u *User) IsAnonymous() bool {
	return u.ID == uuid.Nil
}

func (u *User) IsActivated() bool {
	return u.Activated
}

func (u *User) HasPermission(permission Permission) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}

	return false
}
