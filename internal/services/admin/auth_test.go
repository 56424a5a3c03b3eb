package admin

import (
	"testing"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[uint64]*models.User
	nextID uint64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint64]*models.User{}}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	u := *user
	r.users[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, xerr.ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetUserByID(id uint64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) UpdateRole(id uint64, role models.Role) error {
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", Issuer: "go-docvault", ExpiresIn: time.Hour}}
}

func TestRegisterUser_DefaultsToGuest(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testConfig())

	user, err := svc.RegisterUser("alice", "s3cret!", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, user.Role)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	_, err = svc.RegisterUser("alice", "another", "other@example.com")
	assert.ErrorIs(t, err, xerr.ErrUserAlreadyExists)

	_, err = svc.RegisterUser("bob", "another", "alice@example.com")
	assert.ErrorIs(t, err, xerr.ErrEmailAlreadyExists)

	_, err = svc.RegisterUser("carol", "123", "carol@example.com")
	assert.ErrorIs(t, err, xerr.ErrValidationFailed)
}

func TestLoginUser_TokenCarriesRole(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := testConfig()
	svc := NewAuthService(repo, cfg)

	user, err := svc.RegisterUser("dana", "hunter22", "dana@example.com")
	require.NoError(t, err)
	_, err = NewUserService(repo).AssignRole(models.Actor{UserID: 99, Role: models.RoleSuperAdmin}, user.ID, models.RoleStaff)
	require.NoError(t, err)

	token, loggedIn, err := svc.LoginUser("dana@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := utils.ParseToken(token, cfg.JWT.SecretKey, cfg.JWT.Issuer)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)

	_, _, err = svc.LoginUser("dana", "wrong")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)

	_, _, err = svc.LoginUser("nobody", "hunter22")
	assert.ErrorIs(t, err, xerr.ErrInvalidCredentials)
}

func TestParseToken_Rejects(t *testing.T) {
	token, err := utils.GenerateToken(1, "eve", models.RoleStaff, "secret-a", "go-docvault", time.Hour)
	require.NoError(t, err)

	_, err = utils.ParseToken(token, "secret-b", "go-docvault")
	assert.Error(t, err)

	_, err = utils.ParseToken(token, "secret-a", "someone-else")
	assert.Error(t, err)

	expired, err := utils.GenerateToken(1, "eve", models.RoleStaff, "secret-a", "go-docvault", -time.Minute)
	require.NoError(t, err)
	_, err = utils.ParseToken(expired, "secret-a", "go-docvault")
	assert.Error(t, err)
}

func TestAssignRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	require.NoError(t, repo.CreateUser(&models.User{Username: "fay", Email: "fay@example.com", Role: models.RoleGuest}))

	_, err := svc.AssignRole(models.Actor{UserID: 5, Role: models.RoleStaff}, 1, models.RoleStaff)
	assert.ErrorIs(t, err, xerr.ErrPermissionDenied)

	_, err = svc.AssignRole(models.Actor{UserID: 5, Role: models.RoleSuperAdmin}, 1, models.Role(0))
	assert.ErrorIs(t, err, xerr.ErrInvalidParams)

	_, err = svc.AssignRole(models.Actor{UserID: 5, Role: models.RoleSuperAdmin}, 404, models.RoleStaff)
	assert.ErrorIs(t, err, xerr.ErrUserNotFound)

	user, err := svc.AssignRole(models.Actor{UserID: 5, Role: models.RoleSuperAdmin}, 1, models.RoleContributor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleContributor, user.Role)

	profile, err := svc.GetUserProfile(1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleContributor, profile.Role)
}
