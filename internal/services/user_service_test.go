package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
)

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(zerolog.Nop(), newFakeUserStore(), newFakeTaskStore())

	var validationErr *ValidationError

	_, err := svc.CreateUser(context.Background(), CreateUserParams{Email: "ann@example.com"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name is required", validationErr.Message)

	_, err = svc.CreateUser(context.Background(), CreateUserParams{Name: "   ", Email: "ann@example.com"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name is required", validationErr.Message)

	_, err = svc.CreateUser(context.Background(), CreateUserParams{Name: "Ann"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email is required", validationErr.Message)

	_, err = svc.CreateUser(context.Background(), CreateUserParams{Name: "Ann", Email: "   "})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email is required", validationErr.Message)
}

func TestCreateUserNormalizesAndDedupes(t *testing.T) {
	userStore := newFakeUserStore()
	taskStore := newFakeTaskStore()
	svc := NewUserService(zerolog.Nop(), userStore, taskStore)

	t1 := bson.NewObjectID().Hex()
	t2 := bson.NewObjectID().Hex()

	user, err := svc.CreateUser(context.Background(), CreateUserParams{
		Name:         "Ann",
		Email:        "  Ann@Example.COM ",
		PendingTasks: []string{t1, t2, t1},
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, []string{t1, t2}, user.PendingTasks)
	assert.False(t, user.ID.IsZero())
	assert.False(t, user.DateCreated.IsZero())

	// The initial pending list is stored as given. The referenced tasks
	// do not exist here and nothing tries to touch them.
	assert.Empty(t, taskStore.assigns)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	userStore := newFakeUserStore()
	userStore.insertErr = mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
	svc := NewUserService(zerolog.Nop(), userStore, newFakeTaskStore())

	_, err := svc.CreateUser(context.Background(), CreateUserParams{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetUser(t *testing.T) {
	userID := bson.NewObjectID()
	userStore := newFakeUserStore(&models.User{ID: userID, Name: "Ann", Email: "ann@example.com"})
	svc := NewUserService(zerolog.Nop(), userStore, newFakeTaskStore())

	user, err := svc.GetUser(context.Background(), userID.Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	_, err = svc.GetUser(context.Background(), bson.NewObjectID().Hex(), nil)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetUser(context.Background(), "not-a-hex-id", nil)
	assert.ErrorIs(t, err, ErrMalformedID)
}

func TestReplaceUserAppliesPendingDelta(t *testing.T) {
	userID := bson.NewObjectID()
	kept := bson.NewObjectID()
	added := bson.NewObjectID()
	dropped := bson.NewObjectID()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	userStore := newFakeUserStore(&models.User{
		ID:           userID,
		Name:         "Ann",
		Email:        "ann@example.com",
		PendingTasks: []string{kept.Hex(), dropped.Hex()},
		DateCreated:  created,
	})
	taskStore := newFakeTaskStore(
		&models.Task{ID: kept, Name: "kept", AssignedUser: userID.Hex(), AssignedUserName: "Ann"},
		&models.Task{ID: added, Name: "added"},
		&models.Task{ID: dropped, Name: "dropped", AssignedUser: userID.Hex(), AssignedUserName: "Ann"},
	)
	svc := NewUserService(zerolog.Nop(), userStore, taskStore)

	user, err := svc.ReplaceUser(context.Background(), userID.Hex(), ReplaceUserParams{
		Name:         "Anna",
		Email:        "anna@example.com",
		PendingTasks: []string{kept.Hex(), added.Hex()},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{kept.Hex(), added.Hex()}, user.PendingTasks)
	assert.Equal(t, created, user.DateCreated, "creation timestamp is immutable")

	// Only the delta is touched: the added task gains the assignment,
	// the dropped one loses it, the kept one is left alone.
	require.Len(t, taskStore.assigns, 2)
	assert.Equal(t, assignOp{taskID: added, userID: userID.Hex(), userName: "Anna"}, taskStore.assigns[0])
	assert.Equal(t, assignOp{taskID: dropped, userID: "", userName: models.UnassignedName}, taskStore.assigns[1])

	assert.Equal(t, userID.Hex(), taskStore.tasks[added].AssignedUser)
	assert.Equal(t, "Anna", taskStore.tasks[added].AssignedUserName)
	assert.Equal(t, "", taskStore.tasks[dropped].AssignedUser)
	assert.Equal(t, models.UnassignedName, taskStore.tasks[dropped].AssignedUserName)

	require.NotNil(t, userStore.replaced)
	assert.Equal(t, "anna@example.com", userStore.replaced.Email)
}

func TestReplaceUserRejectsCompletedAddition(t *testing.T) {
	userID := bson.NewObjectID()
	done := bson.NewObjectID()

	userStore := newFakeUserStore(&models.User{
		ID:    userID,
		Name:  "Ann",
		Email: "ann@example.com",
	})
	taskStore := newFakeTaskStore(&models.Task{ID: done, Name: "done", Completed: true})
	svc := NewUserService(zerolog.Nop(), userStore, taskStore)

	_, err := svc.ReplaceUser(context.Background(), userID.Hex(), ReplaceUserParams{
		Name:         "Ann",
		Email:        "ann@example.com",
		PendingTasks: []string{done.Hex()},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Empty(t, taskStore.assigns, "rejected batches must write nothing")
	assert.Nil(t, userStore.replaced)
	assert.Empty(t, userStore.users[userID].PendingTasks)
}

func TestReplaceUserSkipsUnresolvableAdditions(t *testing.T) {
	userID := bson.NewObjectID()
	ghost := bson.NewObjectID()

	userStore := newFakeUserStore(&models.User{ID: userID, Name: "Ann", Email: "ann@example.com"})
	taskStore := newFakeTaskStore()
	svc := NewUserService(zerolog.Nop(), userStore, taskStore)

	user, err := svc.ReplaceUser(context.Background(), userID.Hex(), ReplaceUserParams{
		Name:         "Ann",
		Email:        "ann@example.com",
		PendingTasks: []string{ghost.Hex(), "not-a-hex-id"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{ghost.Hex(), "not-a-hex-id"}, user.PendingTasks, "the list is stored as given")
	assert.Empty(t, taskStore.assigns)
}

func TestReplaceUserDuplicateEmail(t *testing.T) {
	userID := bson.NewObjectID()
	userStore := newFakeUserStore(&models.User{ID: userID, Name: "Ann", Email: "ann@example.com"})
	userStore.replaceErr = mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
	svc := NewUserService(zerolog.Nop(), userStore, newFakeTaskStore())

	_, err := svc.ReplaceUser(context.Background(), userID.Hex(), ReplaceUserParams{
		Name:  "Ann",
		Email: "bob@example.com",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestReplaceUserErrors(t *testing.T) {
	svc := NewUserService(zerolog.Nop(), newFakeUserStore(), newFakeTaskStore())
	params := ReplaceUserParams{Name: "Ann", Email: "ann@example.com"}

	_, err := svc.ReplaceUser(context.Background(), bson.NewObjectID().Hex(), params)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.ReplaceUser(context.Background(), "not-a-hex-id", params)
	assert.ErrorIs(t, err, ErrMalformedID)
}

func TestDeleteUserUnassignsPendingTasks(t *testing.T) {
	userID := bson.NewObjectID()
	t1 := bson.NewObjectID()
	t2 := bson.NewObjectID()

	userStore := newFakeUserStore(&models.User{
		ID:           userID,
		Name:         "Ann",
		Email:        "ann@example.com",
		PendingTasks: []string{t1.Hex(), t2.Hex()},
	})
	taskStore := newFakeTaskStore(
		&models.Task{ID: t1, Name: "one", AssignedUser: userID.Hex(), AssignedUserName: "Ann"},
		&models.Task{ID: t2, Name: "two", AssignedUser: userID.Hex(), AssignedUserName: "Ann"},
	)
	svc := NewUserService(zerolog.Nop(), userStore, taskStore)

	deleted, err := svc.DeleteUser(context.Background(), userID.Hex())
	require.NoError(t, err)
	assert.Equal(t, userID, deleted.ID)

	require.Len(t, taskStore.assigns, 2)
	for _, op := range taskStore.assigns {
		assert.Equal(t, "", op.userID)
		assert.Equal(t, models.UnassignedName, op.userName)
	}
	assert.Equal(t, models.UnassignedName, taskStore.tasks[t1].AssignedUserName)
	assert.Equal(t, models.UnassignedName, taskStore.tasks[t2].AssignedUserName)
	assert.NotContains(t, userStore.users, userID)
}

func TestDeleteUserErrors(t *testing.T) {
	taskStore := newFakeTaskStore()
	svc := NewUserService(zerolog.Nop(), newFakeUserStore(), taskStore)

	_, err := svc.DeleteUser(context.Background(), bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.DeleteUser(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrMalformedID)

	assert.Empty(t, taskStore.assigns)
}

func TestListUsersHasNoImplicitLimit(t *testing.T) {
	userStore := newFakeUserStore()
	svc := NewUserService(zerolog.Nop(), userStore, newFakeTaskStore())

	_, err := svc.ListUsers(context.Background(), query.Query{})
	require.NoError(t, err)
	assert.Zero(t, userStore.lastQuery.Limit)
}

func TestCountUsers(t *testing.T) {
	userStore := newFakeUserStore(
		&models.User{ID: bson.NewObjectID(), Name: "Ann", Email: "ann@example.com"},
		&models.User{ID: bson.NewObjectID(), Name: "Bob", Email: "bob@example.com"},
	)
	svc := NewUserService(zerolog.Nop(), userStore, newFakeTaskStore())

	count, err := svc.CountUsers(context.Background(), query.Query{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
