package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbrawl/internal/model"
	"brainbrawl/internal/repository"
)

type fakeUserRepo struct {
	users map[string]*model.User // keyed by ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) IncrementStats(ctx context.Context, id string, reward model.Reward) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.XP += reward.XPDelta
	u.Gems += reward.GemDelta
	u.GamesPlayed++
	if reward.Won {
		u.GamesWon++
	}
	u.TotalScore += reward.ScoreDelta
	return nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	resp, err := svc.Register(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.Username)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	login, err := svc.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, login.UserID)
}

func TestAuthRegisterWeakPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), "test-secret")
	_, err := svc.Register(context.Background(), "alice", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "password456")
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestAuthLoginFailures(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthValidateToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), "test-secret")

	_, err := svc.ValidateToken("not a token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(newFakeUserRepo(), "different-secret")
	resp, err := other.Register(context.Background(), "bob", "password123")
	require.NoError(t, err)

	// token signed with a different secret must be rejected
	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
