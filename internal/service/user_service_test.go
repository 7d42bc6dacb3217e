package service

import (
	"Atelier/internal/api/dto"
	"Atelier/internal/model"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/security"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[uint64]*model.User
	grants []*model.CreditTransaction
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint64]*model.User{}}
}

func (f *fakeUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username != nil && *user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User, grant *model.CreditTransaction) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	if grant != nil {
		grant.UserID = user.ID
		f.grants = append(f.grants, grant)
	}
	return nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return nil
	}
	if user.Password != nil {
		stored.Password = user.Password
	}
	return nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id uint64) error {
	if stored, ok := f.users[id]; ok {
		stored.IsDelete = true
	}
	return nil
}

func registerTestUser(t *testing.T, repo *fakeUserRepo, username, password string) *model.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	user := &model.User{Username: &username, Password: &hash, CreditBalance: 100}
	require.NoError(t, repo.CreateUser(context.Background(), user, nil))
	return user
}

func TestRegisterGrantsSignupCredits(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	username, password := "atelier-user", "secret-pass"
	require.NoError(t, svc.Register(context.Background(), &dto.RegisterDTO{
		Username: &username,
		Password: &password,
	}))

	user, err := repo.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(100), user.CreditBalance)

	// 注册赠送记一条正数流水
	require.Len(t, repo.grants, 1)
	assert.Equal(t, int64(100), repo.grants[0].Amount)
	assert.Equal(t, consts.TxTypeGrant, repo.grants[0].TxType)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	registerTestUser(t, repo, "taken-name", "secret-pass")
	svc := NewUserService(repo)

	username, password := "taken-name", "another-pass"
	err := svc.Register(context.Background(), &dto.RegisterDTO{
		Username: &username,
		Password: &password,
	})
	require.ErrorIs(t, err, ErrUserUsernameExist)
}

func TestLoginChecks(t *testing.T) {
	repo := newFakeUserRepo()
	user := registerTestUser(t, repo, "login-user", "secret-pass")
	banned := registerTestUser(t, repo, "banned-user", "secret-pass")
	banned.IsBan = true
	svc := NewUserService(repo)

	username, password := "login-user", "secret-pass"
	token, err := svc.Login(context.Background(), &dto.CredentialDTO{Username: &username, Password: &password})
	require.NoError(t, err)
	claims, err := security.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	wrong := "wrong-pass"
	_, err = svc.Login(context.Background(), &dto.CredentialDTO{Username: &username, Password: &wrong})
	require.ErrorIs(t, err, ErrPasswordIncorrect)

	bannedName := "banned-user"
	_, err = svc.Login(context.Background(), &dto.CredentialDTO{Username: &bannedName, Password: &password})
	require.ErrorIs(t, err, ErrUserBan)

	missing := "nobody"
	_, err = svc.Login(context.Background(), &dto.CredentialDTO{Username: &missing, Password: &password})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword(t *testing.T) {
	repo := newFakeUserRepo()
	user := registerTestUser(t, repo, "pwd-user", "old-secret")
	svc := NewUserService(repo)

	oldWrong, newPass := "not-the-old", "new-secret"
	err := svc.UpdatePassword(context.Background(), user.ID, &dto.UpdatePasswordDTO{
		OldPassword: &oldWrong,
		NewPassword: &newPass,
	})
	require.ErrorIs(t, err, ErrPasswordIncorrect)

	oldRight := "old-secret"
	require.NoError(t, svc.UpdatePassword(context.Background(), user.ID, &dto.UpdatePasswordDTO{
		OldPassword: &oldRight,
		NewPassword: &newPass,
	}))
	require.NotNil(t, user.Password)
	require.NoError(t, security.CheckPasswordHash(newPass, *user.Password))
}

func TestDeleteAccount(t *testing.T) {
	repo := newFakeUserRepo()
	user := registerTestUser(t, repo, "gone-user", "secret-pass")
	svc := NewUserService(repo)

	require.NoError(t, svc.DeleteAccount(context.Background(), user.ID, ""))
	assert.True(t, user.IsDelete)

	// 已注销的账号再次注销按不存在处理
	err := svc.DeleteAccount(context.Background(), user.ID, "")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetUserInfo(context.Background(), 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
