package service

import (
	"context"
	"testing"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	svc, users, _ := newTestService(t)

	resp, err := svc.CreateUser(context.Background(), "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.NotZero(t, resp.ID)

	// The password is stored hashed, never in the clear.
	stored, err := users.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
	assert.Equal(t, []string{models.RoleUser}, stored.Roles)

	_, err = svc.CreateUser(context.Background(), "alice", "", "other456")
	assert.ErrorIs(t, err, models.ErrUserExists)
}

func TestGetUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	user := addUser(t, users, "alice")

	resp, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, []string{models.RoleUser}, resp.Roles)

	_, err = svc.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	svc, users, _ := newTestService(t)
	addUser(t, users, "alice")
	addUser(t, users, "bob")
	addUser(t, users, "carol")

	page, err := svc.ListUsers(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	second, err := svc.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, second.Users, 1)
}

func TestDeleteUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	user := addUser(t, users, "alice")

	require.NoError(t, svc.DeleteUser(context.Background(), user.ID))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), user.ID), models.ErrUserNotFound)
}

func TestRoleAssignment(t *testing.T) {
	svc, users, _ := newTestService(t)
	user := addUser(t, users, "alice")
	ctx := context.Background()

	require.NoError(t, svc.AssignRole(ctx, user.ID, models.RoleAdmin))
	assert.ErrorIs(t, svc.AssignRole(ctx, user.ID, models.RoleAdmin), models.ErrRoleAlreadyAssigned)
	assert.ErrorIs(t, svc.AssignRole(ctx, user.ID, "SUPERVISOR"), models.ErrRoleNotFound)
	assert.ErrorIs(t, svc.AssignRole(ctx, 999, models.RoleAdmin), models.ErrUserNotFound)

	require.NoError(t, svc.RemoveRole(ctx, user.ID, models.RoleAdmin))
	assert.ErrorIs(t, svc.RemoveRole(ctx, user.ID, models.RoleAdmin), models.ErrRoleNotAssigned)
	assert.ErrorIs(t, svc.RemoveRole(ctx, 999, models.RoleAdmin), models.ErrUserNotFound)
}
