// Package storage implements the MongoDB persistence layer for users
// and tasks, and defines the store interfaces the services depend on.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
)

var (
	// ErrNotFound is returned when no document matches the given id.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID is returned by ParseID for ids that are not a
	// valid object id hex string.
	ErrInvalidID = errors.New("invalid id format")
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

type UserStore interface {
	// Insert stores a new user, assigning a fresh object id when the
	// user has none.
	Insert(ctx context.Context, user *models.User) error

	// FindByID returns the user with the given id, projected down to
	// sel when sel is non-empty. It returns ErrNotFound if no user
	// matches.
	FindByID(ctx context.Context, id bson.ObjectID, sel map[string]bool) (*models.User, error)

	// Find returns the users matching the query. The result is never
	// a nil slice.
	Find(ctx context.Context, q query.Query) ([]models.User, error)

	// Count returns the number of users matching the query's filter.
	// Skip and limit are not applied.
	Count(ctx context.Context, q query.Query) (int64, error)

	// Replace overwrites the stored document with the same id. It
	// returns ErrNotFound if no user matches.
	Replace(ctx context.Context, user *models.User) error

	// Delete removes the user with the given id. It returns
	// ErrNotFound if no user matches.
	Delete(ctx context.Context, id bson.ObjectID) error

	// AddPendingTask adds taskID to the user's pendingTasks unless it
	// is already present. A missing user is a silent no-op, so the
	// call is safe to replay.
	AddPendingTask(ctx context.Context, userID bson.ObjectID, taskID string) error

	// RemovePendingTask removes taskID from the user's pendingTasks.
	// Absent ids and missing users are silent no-ops.
	RemovePendingTask(ctx context.Context, userID bson.ObjectID, taskID string) error
}

type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id bson.ObjectID, sel map[string]bool) (*models.Task, error)

	// FindByIDs returns the tasks whose id is in ids. Ids that match
	// nothing are simply absent from the result.
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Task, error)

	Find(ctx context.Context, q query.Query) ([]models.Task, error)
	Count(ctx context.Context, q query.Query) (int64, error)
	Replace(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id bson.ObjectID) error

	// SetAssignment overwrites the task's assignedUser and
	// assignedUserName in place. A missing task is a silent no-op.
	SetAssignment(ctx context.Context, taskID bson.ObjectID, userID, userName string) error
}

// Store hands out the collection-backed implementations of the store
// interfaces.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Users() UserStore {
	return &userStore{c: s.db.Collection(usersCollection)}
}

func (s *Store) Tasks() TaskStore {
	return &taskStore{c: s.db.Collection(tasksCollection)}
}

// EnsureIndexes creates the indexes the store relies on. Mongo treats
// an existing identical index as a no-op, so this runs on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// ParseID converts an id taken from a request path into an object id.
func ParseID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, ErrInvalidID
	}
	return id, nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
