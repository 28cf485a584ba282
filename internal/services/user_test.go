package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeRevoker) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = make(map[string]time.Duration)
	}
	f.revoked[tokenID] = ttl
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	store := newMemStore()
	producer := &recordingPublisher{}
	svc := NewAuthService(store, nil, producer, logger.Discard())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, &SignUpRequest{
		Username: "shower_guy",
		Email:    "Guy@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "shower_guy", user.Name)
	require.NotNil(t, user.Username)
	assert.Equal(t, "shower_guy", *user.Username)
	assert.Equal(t, "guy@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.Password)
	assert.Len(t, producer.events, 1)

	signedIn, err := svc.SignIn(ctx, &SignInRequest{Username: "shower_guy", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	_, err = svc.SignIn(ctx, &SignInRequest{Username: "shower_guy", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.SignIn(ctx, &SignInRequest{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignUp_Validation(t *testing.T) {
	store := newMemStore()
	store.addUser("taken")
	svc := NewAuthService(store, nil, nil, logger.Discard())

	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr error
	}{
		{"short username", SignUpRequest{Username: "ab", Email: "a@b.co", Password: "12345678"}, ErrValidation},
		{"bad username chars", SignUpRequest{Username: "no spaces", Email: "a@b.co", Password: "12345678"}, ErrValidation},
		{"bad email", SignUpRequest{Username: "valid", Email: "not-an-email", Password: "12345678"}, ErrValidation},
		{"short password", SignUpRequest{Username: "valid", Email: "a@b.co", Password: "1234567"}, ErrValidation},
		{"username taken", SignUpRequest{Username: "taken", Email: "new@b.co", Password: "12345678"}, ErrConflict},
		{"email taken", SignUpRequest{Username: "fresh", Email: "taken@example.com", Password: "12345678"}, ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.SignUp(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignOut(t *testing.T) {
	store := newMemStore()
	user := store.addUser("leaver")
	revoker := &fakeRevoker{}
	svc := NewAuthService(store, revoker, nil, logger.Discard())
	ctx := context.Background()

	require.NoError(t, svc.SignOut(ctx, Viewer{UserID: user.ID}, "jti-1", time.Now().Add(time.Hour)))
	require.Contains(t, revoker.revoked, "jti-1")
	assert.Greater(t, revoker.revoked["jti-1"], 59*time.Minute)

	assert.ErrorIs(t, svc.SignOut(ctx, Viewer{}, "jti-2", time.Now().Add(time.Hour)), ErrUnauthorized)
	assert.ErrorIs(t, svc.SignOut(ctx, Viewer{UserID: user.ID}, "", time.Now().Add(time.Hour)), ErrUnauthorized)

	revoker.err = errors.New("redis down")
	assert.Error(t, svc.SignOut(ctx, Viewer{UserID: user.ID}, "jti-3", time.Now().Add(time.Hour)))
}

// staleLookupStore misses on username and email lookups, as a concurrent
// sign-up that committed after the check would.
type staleLookupStore struct{ *memStore }

func (s staleLookupStore) Users() UserStore { return staleUsers{memUsers{s.memStore}} }

type staleUsers struct{ memUsers }

func (staleUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, nil
}

func (staleUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func TestSignUp_DuplicateKeyIsConflict(t *testing.T) {
	store := newMemStore()
	store.addUser("racer")
	producer := &recordingPublisher{}
	svc := NewAuthService(staleLookupStore{store}, nil, producer, logger.Discard())

	_, err := svc.SignUp(context.Background(), &SignUpRequest{
		Username: "racer",
		Email:    "other@example.com",
		Password: "12345678",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, store.users, 1)
	assert.Empty(t, producer.events)
}
