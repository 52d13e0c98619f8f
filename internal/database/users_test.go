package database

import (
	"context"
	"testing"

	"deskbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{StudentID: "20240001", Password: "secret", Name: "Kim Minji"}
	require.NoError(t, db.CreateUser(ctx, user))

	err := db.CreateUser(ctx, &models.User{StudentID: "20240001", Password: "other", Name: "Someone Else"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestFindUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{StudentID: "20240001", Password: "secret", Name: "Kim Minji"}))

	user, err := db.FindUser(ctx, "20240001", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Kim Minji", user.Name)

	// Wrong password and unknown id both map to the same error
	_, err = db.FindUser(ctx, "20240001", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = db.FindUser(ctx, "99999999", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureUserKeepsExisting(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{StudentID: "admin", Password: "original", Name: "Administrator"}))
	require.NoError(t, db.EnsureUser(ctx, &models.User{StudentID: "admin", Password: "changed", Name: "Administrator"}))

	user, err := db.FindUser(ctx, "admin", "original")
	require.NoError(t, err)
	assert.Equal(t, "original", user.Password)
}

func TestListUsersOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{StudentID: "20240002", Password: "b", Name: "Lee Jun"}))
	require.NoError(t, db.CreateUser(ctx, &models.User{StudentID: "20240001", Password: "a", Name: "Kim Minji"}))

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "20240001", users[0].StudentID)
	assert.Equal(t, "20240002", users[1].StudentID)
}
