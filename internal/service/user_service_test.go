package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eti-mis/academics-api/internal/models"
	appErrors "github.com/eti-mis/academics-api/pkg/errors"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, user := range m.users {
		list = append(list, *user)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func TestCreateUserLowercasesEmail(t *testing.T) {
	repo := newMockUserRepo()
	audit := &mockLogWriter{}
	svc := NewUserService(repo, audit, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "DEAN@EXAMPLE.COM",
		FullName: "Dean User",
		Role:     models.RoleDean,
		Active:   true,
		Password: "secret1",
	}, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, "dean@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.LogCategorySystem, audit.entries[0].Category)
	require.NotNil(t, audit.entries[0].UserID)
	assert.Equal(t, "actor-1", *audit.entries[0].UserID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "dean@example.com"}
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dean@example.com",
		FullName: "Dean User",
		Role:     models.RoleDean,
		Password: "secret1",
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "x@example.com",
		FullName: "X",
		Role:     "JANITOR",
		Password: "secret1",
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateUser(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "x@example.com", FullName: "Old", Role: models.RoleLecturer, Active: true}
	svc := NewUserService(repo, nil, nil, nil)

	active := false
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{FullName: "New", Role: models.RoleDean, Active: &active}, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, "New", user.FullName)
	assert.Equal(t, models.RoleDean, user.Role)
	assert.False(t, user.Active)
}

func TestDeleteUserDeactivates(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "x@example.com", Active: true}
	svc := NewUserService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", "actor-1"))
	assert.False(t, repo.users["u1"].Active)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil, nil)

	err := svc.Delete(context.Background(), "missing", "actor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
