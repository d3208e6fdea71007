package services

import (
	"context"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
	"github.com/epavlenko/taskboard/internal/storage"
)

// pendingOp records one pending-list mutation so tests can assert both
// the writes and their order.
type pendingOp struct {
	verb   string
	userID bson.ObjectID
	taskID string
}

// assignOp records one assignment overwrite on a task.
type assignOp struct {
	taskID   bson.ObjectID
	userID   string
	userName string
}

// fakeUserStore is an in-memory UserStore with the same set semantics
// and silent no-ops as the collection-backed one.
type fakeUserStore struct {
	mu        sync.Mutex
	users     map[bson.ObjectID]*models.User
	ops       []pendingOp
	lastQuery query.Query
	replaced  *models.User
	deleted   []bson.ObjectID

	insertErr  error
	replaceErr error
}

var _ storage.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[bson.ObjectID]*models.User)}
	for _, user := range users {
		f.users[user.ID] = user
	}
	return f
}

func (f *fakeUserStore) Insert(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id bson.ObjectID, _ map[string]bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *user
	clone.PendingTasks = slices.Clone(user.PendingTasks)
	return &clone, nil
}

func (f *fakeUserStore) Find(_ context.Context, q query.Query) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastQuery = q
	users := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, *user)
	}
	return users, nil
}

func (f *fakeUserStore) Count(_ context.Context, q query.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastQuery = q
	return int64(len(f.users)), nil
}

func (f *fakeUserStore) Replace(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.replaceErr != nil {
		return f.replaceErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	f.users[user.ID] = user
	f.replaced = user
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserStore) AddPendingTask(_ context.Context, userID bson.ObjectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ops = append(f.ops, pendingOp{verb: "add", userID: userID, taskID: taskID})
	user, ok := f.users[userID]
	if !ok {
		// Unmatched updates are silent, like the real store.
		return nil
	}
	if !slices.Contains(user.PendingTasks, taskID) {
		user.PendingTasks = append(user.PendingTasks, taskID)
	}
	return nil
}

func (f *fakeUserStore) RemovePendingTask(_ context.Context, userID bson.ObjectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ops = append(f.ops, pendingOp{verb: "remove", userID: userID, taskID: taskID})
	user, ok := f.users[userID]
	if !ok {
		return nil
	}
	user.PendingTasks = slices.DeleteFunc(user.PendingTasks, func(id string) bool {
		return id == taskID
	})
	return nil
}

// fakeTaskStore is the TaskStore counterpart.
type fakeTaskStore struct {
	mu        sync.Mutex
	tasks     map[bson.ObjectID]*models.Task
	assigns   []assignOp
	lastQuery query.Query
	replaced  *models.Task
	deleted   []bson.ObjectID

	insertErr        error
	setAssignmentErr error
}

var _ storage.TaskStore = (*fakeTaskStore)(nil)

func newFakeTaskStore(tasks ...*models.Task) *fakeTaskStore {
	f := &fakeTaskStore{tasks: make(map[bson.ObjectID]*models.Task)}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeTaskStore) Insert(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	if task.ID.IsZero() {
		task.ID = bson.NewObjectID()
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskStore) FindByID(_ context.Context, id bson.ObjectID, _ map[string]bool) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	task, ok := f.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *task
	return &clone, nil
}

func (f *fakeTaskStore) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if task, ok := f.tasks[id]; ok {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (f *fakeTaskStore) Find(_ context.Context, q query.Query) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastQuery = q
	tasks := make([]models.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (f *fakeTaskStore) Count(_ context.Context, q query.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastQuery = q
	return int64(len(f.tasks)), nil
}

func (f *fakeTaskStore) Replace(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[task.ID]; !ok {
		return storage.ErrNotFound
	}
	f.tasks[task.ID] = task
	f.replaced = task
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.tasks, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTaskStore) SetAssignment(_ context.Context, taskID bson.ObjectID, userID, userName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setAssignmentErr != nil {
		return f.setAssignmentErr
	}
	f.assigns = append(f.assigns, assignOp{taskID: taskID, userID: userID, userName: userName})
	task, ok := f.tasks[taskID]
	if !ok {
		return nil
	}
	task.AssignedUser = userID
	task.AssignedUserName = userName
	return nil
}
