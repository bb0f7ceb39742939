package userservice

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktruong/campusblog/internal/common"
)

func testUser() User {
	return User{
		Username: "testuser",
		Email:    "testuser@example.com",
		Password: Password{
			Plain: "TestPassword123!",
		},
	}
}

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, func() error, error) {
	db := common.TestDB("file://../../migrations", t)
	connURL := common.TestRabbitMQ(t)
	mb, err := common.NewMessageBroker(connURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create message broker: %w", err)
	}

	err = common.SetupUserExchange(mb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not setup user exchange: %w", err)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM users")
		if err != nil {
			return err
		}

		cache.Flush()

		return nil
	}

	return NewUserService(db, mb, cache, nil), db, cleanup, nil
}

func TestCreateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		user        User
		expectedErr error
	}{
		{
			name:        "valid user",
			user:        testUser(),
			expectedErr: nil,
		},
		{
			name: "empty username",
			user: User{
				Email:    testUser().Email,
				Password: testUser().Password,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"username": "must be provided"}},
		},
		{
			name: "empty email",
			user: User{
				Username: testUser().Username,
				Password: testUser().Password,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"email": "must be provided"}},
		},
		{
			name: "empty password",
			user: User{
				Username: testUser().Username,
				Email:    testUser().Email,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"password": "must be provided"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			token, err := s.CreateUser(ctx, tc.user.Username, tc.user.Email, tc.user.Password.Plain)
			assert.Equal(t, tc.expectedErr, err)

			var count int

			if err == nil {
				assert.NotNil(t, token)
				assert.Len(t, *token, 26)

				err = db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 1, count)

				err = db.QueryRow("SELECT COUNT(*) FROM tokens").Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 1, count)
			} else {
				err = db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
				assert.NoError(t, err)
				assert.Equal(t, 0, count)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.CreateUser(ctx, "testuser", "testuser@example.com", "TestPassword123!")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "testuser", "other@example.com", "TestPassword123!")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = s.CreateUser(ctx, "otheruser", "testuser@example.com", "TestPassword123!")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestActivateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "TestPassword123!")
	require.NoError(t, err)

	err = s.ActivateUser(ctx, *token)
	assert.NoError(t, err)

	var activated bool
	err = db.QueryRow("SELECT activated FROM users WHERE username = $1", "testuser").Scan(&activated)
	require.NoError(t, err)
	assert.True(t, activated)

	// the token is single use
	err = s.ActivateUser(ctx, *token)
	assert.ErrorIs(t, err, ErrNotFound)

	// activation grants the write permission
	var permission string
	err = db.QueryRow("SELECT p.permission FROM user_permissions p JOIN users u ON u.id = p.user_id WHERE u.username = $1", "testuser").Scan(&permission)
	require.NoError(t, err)
	assert.Equal(t, string(PermissionWriteBlog), permission)
}

func TestLoginUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = s.CreateUser(ctx, "testuser", "testuser@example.com", "TestPassword123!")
	require.NoError(t, err)

	token, err := s.LoginUser(ctx, "testuser", "TestPassword123!")
	assert.NoError(t, err)
	assert.Len(t, token.AccessTokenPlain, 26)
	assert.Len(t, token.RefreshTokenPlain, 26)

	// logging in again replaces the previous token pair
	newToken, err := s.LoginUser(ctx, "testuser", "TestPassword123!")
	assert.NoError(t, err)
	assert.NotEqual(t, token.AccessTokenPlain, newToken.AccessTokenPlain)

	_, err = s.GetUserByAccessToken(ctx, token.AccessTokenPlain)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := s.GetUserByAccessToken(ctx, newToken.AccessTokenPlain)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)

	_, err = s.LoginUser(ctx, "testuser", "WrongPassword123!")
	assert.ErrorIs(t, err, ErrAuthenticationFailure)

	_, err = s.LoginUser(ctx, "nosuchuser", "TestPassword123!")
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
}

func TestLogoutUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = s.CreateUser(ctx, "testuser", "testuser@example.com", "TestPassword123!")
	require.NoError(t, err)

	token, err := s.LoginUser(ctx, "testuser", "TestPassword123!")
	require.NoError(t, err)

	user, err := s.GetUserByAccessToken(ctx, token.AccessTokenPlain)
	require.NoError(t, err)

	err = s.LogoutUser(ctx, user.ID, token.AccessTokenPlain)
	assert.NoError(t, err)

	_, err = s.GetUserByAccessToken(ctx, token.AccessTokenPlain)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	t.Cleanup(func() {
		err := cleanup()
		assert.NoError(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.CreateUser(ctx, "testuser", "testuser@example.com", "TestPassword123!")
	require.NoError(t, err)

	var id uuid.UUID
	err = db.QueryRow("SELECT id FROM users WHERE username = $1", "testuser").Scan(&id)
	require.NoError(t, err)

	err = s.UpdateProfile(ctx, id, "Test User", "avatars/test.png")
	assert.NoError(t, err)

	profile, err := s.GetProfile(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "Test User", profile.DisplayName)

	// an empty avatar key keeps the old avatar
	err = s.UpdateProfile(ctx, id, "Renamed User", "")
	assert.NoError(t, err)

	var avatarKey string
	err = db.QueryRow("SELECT avatar_key FROM users WHERE id = $1", id).Scan(&avatarKey)
	require.NoError(t, err)
	assert.Equal(t, "avatars/test.png", avatarKey)

	_, err = s.GetProfile(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNotFound)
}
