package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskCompleted = errors.New("task already completed")
	ErrEmailTaken    = errors.New("email already in use")
	ErrMalformedID   = errors.New("invalid id format")
)

// ValidationError reports a request payload rejected by field or
// cross-entity validation. The message is safe to show to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errValidationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type UserService interface {
	// ListUsers returns the users matching the query, sorted,
	// projected and windowed as requested.
	ListUsers(ctx context.Context, q query.Query) ([]models.User, error)

	// CountUsers returns the number of users matching the query's
	// filter. Skip and limit deliberately do not apply to counts.
	CountUsers(ctx context.Context, q query.Query) (int64, error)

	// GetUser returns the user with the given id, optionally projected
	// down to sel.
	//
	// It returns ErrMalformedID if the id is not an object id hex and
	// ErrUserNotFound if no user matches.
	GetUser(ctx context.Context, id string, sel map[string]bool) (*models.User, error)

	// CreateUser validates and stores a new user. The supplied pending
	// task ids are stored exactly as given; only task writes and user
	// replacement reconcile them against real tasks.
	//
	// It returns a *ValidationError when name or email is missing and
	// ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)

	// ReplaceUser replaces the stored document wholesale and reconciles
	// task assignments with the pendingTasks delta: tasks added to the
	// list are assigned to this user, removed ones are unassigned. The
	// compensating task updates run before the user document itself is
	// replaced.
	//
	// It returns a *ValidationError when any added task is already
	// completed; nothing has been written in that case.
	ReplaceUser(ctx context.Context, id string, params ReplaceUserParams) (*models.User, error)

	// DeleteUser unassigns every pending task, then deletes the user
	// and returns the deleted document.
	DeleteUser(ctx context.Context, id string) (*models.User, error)
}

type TaskService interface {
	// ListTasks returns the tasks matching the query. A query without
	// a limit is capped at 100 tasks.
	ListTasks(ctx context.Context, q query.Query) ([]models.Task, error)

	// CountTasks returns the number of tasks matching the query's
	// filter. The list cap does not apply to counts.
	CountTasks(ctx context.Context, q query.Query) (int64, error)

	// GetTask returns the task with the given id, optionally projected
	// down to sel.
	GetTask(ctx context.Context, id string, sel map[string]bool) (*models.Task, error)

	// CreateTask validates and stores a new task. Once the task is
	// persisted, its id is added to the assignee's pendingTasks unless
	// the task is already completed.
	//
	// It returns ErrUserNotFound when the assignee does not exist and
	// a *ValidationError when the supplied assignedUserName does not
	// match the assignee's name.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ReplaceTask replaces the stored document wholesale, moving the
	// task id between the affected users' pendingTasks as the
	// assignment or completion state changes. Completed tasks cannot
	// be replaced (ErrTaskCompleted).
	ReplaceTask(ctx context.Context, id string, params ReplaceTaskParams) (*models.Task, error)

	// DeleteTask removes the task id from its assignee's pendingTasks,
	// then deletes the task and returns the deleted document.
	DeleteTask(ctx context.Context, id string) (*models.Task, error)
}

type CreateUserParams struct {
	Name         string
	Email        string
	PendingTasks []string
}

// ReplaceUserParams mirrors CreateUserParams. A replacement without
// pendingTasks empties the list.
type ReplaceUserParams struct {
	Name         string
	Email        string
	PendingTasks []string
}

// CreateTaskParams carries the payload in wire form: Deadline and
// Completed keep whatever JSON type the client sent and are coerced
// by the validator.
type CreateTaskParams struct {
	Name             string
	Description      string
	Deadline         any
	Completed        any
	AssignedUser     string
	AssignedUserName string
}

type ReplaceTaskParams struct {
	Name             string
	Description      string
	Deadline         any
	Completed        any
	AssignedUser     string
	AssignedUserName string
}
