package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
	"github.com/epavlenko/taskboard/internal/storage"
)

// defaultTaskListLimit caps task listings that carry no limit of
// their own.
const defaultTaskListLimit = 100

type taskServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
	tasks  storage.TaskStore
}

func NewTaskService(
	logger zerolog.Logger,
	users storage.UserStore,
	tasks storage.TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		users:  users,
		tasks:  tasks,
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, q query.Query) ([]models.Task, error) {
	if q.Limit == 0 {
		q.Limit = defaultTaskListLimit
	}

	tasks, err := s.tasks.Find(ctx, q)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed tasks")

	return tasks, nil
}

func (s *taskServiceImpl) CountTasks(ctx context.Context, q query.Query) (int64, error) {
	count, err := s.tasks.Count(ctx, q)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return 0, err
	}

	return count, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id string, sel map[string]bool) (*models.Task, error) {
	taskID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("task_id", id).
			Msg("malformed task id")
		return nil, ErrMalformedID
	}

	task, err := s.tasks.FindByID(ctx, taskID, sel)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to fetch task")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, errValidationf("name is required")
	}
	deadline, err := parseDeadline(params.Deadline)
	if err != nil {
		return nil, err
	}
	completed, err := parseCompleted(params.Completed, false)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Name:             params.Name,
		Description:      params.Description,
		Deadline:         deadline,
		Completed:        completed,
		AssignedUser:     params.AssignedUser,
		AssignedUserName: params.AssignedUserName,
		DateCreated:      time.Now().UTC(),
	}

	var assigneeID bson.ObjectID
	if task.AssignedUser == "" {
		task.AssignedUserName = models.UnassignedName
	} else {
		assigneeID, err = s.checkAssignment(ctx, task.AssignedUser, task.AssignedUserName)
		if err != nil {
			return nil, err
		}
	}

	if err = s.tasks.Insert(ctx, task); err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID.Hex()).
		Msg("inserted task")

	if task.AssignedUser != "" && !task.Completed {
		if err = s.users.AddPendingTask(ctx, assigneeID, task.ID.Hex()); err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID.Hex()).
				Str("user_id", task.AssignedUser).
				Msg("failed to add task to pending list")
			return nil, err
		}
	}

	s.logger.Info().
		Str("task_id", task.ID.Hex()).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) ReplaceTask(ctx context.Context, id string, params ReplaceTaskParams) (*models.Task, error) {
	taskID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("task_id", id).
			Msg("malformed task id")
		return nil, ErrMalformedID
	}

	existing, err := s.tasks.FindByID(ctx, taskID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to fetch task")
		return nil, err
	}

	if existing.Completed {
		s.logger.Warn().
			Str("task_id", id).
			Msg("completed tasks cannot be replaced")
		return nil, ErrTaskCompleted
	}

	if strings.TrimSpace(params.Name) == "" {
		return nil, errValidationf("name is required")
	}
	deadline, err := parseDeadline(params.Deadline)
	if err != nil {
		return nil, err
	}
	completed, err := parseCompleted(params.Completed, true)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:               existing.ID,
		Name:             params.Name,
		Description:      params.Description,
		Deadline:         deadline,
		Completed:        completed,
		AssignedUser:     params.AssignedUser,
		AssignedUserName: params.AssignedUserName,
		DateCreated:      existing.DateCreated,
	}

	if task.AssignedUser == "" {
		if task.AssignedUserName != models.UnassignedName {
			return nil, errValidationf("assignedUserName must be %q when assignedUser is empty", models.UnassignedName)
		}
	} else {
		if _, err = s.checkAssignment(ctx, task.AssignedUser, task.AssignedUserName); err != nil {
			return nil, err
		}
	}

	if err = s.reconcilePending(ctx, existing, task); err != nil {
		return nil, err
	}

	if err = s.tasks.Replace(ctx, task); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to replace task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", id).
		Msg("replaced task")

	s.logger.Info().
		Str("task_id", id).
		Msg("replaced task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	taskID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("task_id", id).
			Msg("malformed task id")
		return nil, ErrMalformedID
	}

	task, err := s.tasks.FindByID(ctx, taskID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to fetch task")
		return nil, err
	}

	if userID, ok := parseHexID(task.AssignedUser); ok {
		if err = s.users.RemovePendingTask(ctx, userID, task.ID.Hex()); err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", id).
				Str("user_id", task.AssignedUser).
				Msg("failed to remove task from pending list")
			return nil, err
		}
	}

	if err = s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", id).
		Msg("deleted task")

	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return task, nil
}

// checkAssignment validates the assignment pair of an incoming task
// payload and returns the assignee's id. The referenced user must
// exist, and the supplied assignedUserName must match the user's
// current name exactly.
func (s *taskServiceImpl) checkAssignment(ctx context.Context, userHex, userName string) (bson.ObjectID, error) {
	userID, err := bson.ObjectIDFromHex(userHex)
	if err != nil {
		s.logger.Error().
			Str("user_id", userHex).
			Msg("malformed assignee id")
		return bson.ObjectID{}, ErrMalformedID
	}

	user, err := s.users.FindByID(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("user_id", userHex).
				Msg("assignee not found")
			return bson.ObjectID{}, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userHex).
			Msg("failed to fetch assignee")
		return bson.ObjectID{}, err
	}

	if userName != user.Name {
		s.logger.Warn().
			Str("user_id", userHex).
			Str("assigned_user_name", userName).
			Msg("assignedUserName mismatch")
		return bson.ObjectID{}, errValidationf("assignedUserName must match the assigned user's name")
	}

	return userID, nil
}

// reconcilePending applies the pendingTasks compensations a task
// replacement requires, before the task document itself is written.
// Two independent rules run in a fixed order. First the assignee
// change moves the id out of the old user's list and into the new
// one's. Then the completion change removes the id when the task
// became completed, or adds it back when it no longer is, against the
// new assignee when there is one and the old one otherwise. Every
// mutation is a set operation, so partial replays are harmless.
func (s *taskServiceImpl) reconcilePending(ctx context.Context, before, after *models.Task) error {
	taskID := before.ID.Hex()

	if before.AssignedUser != after.AssignedUser {
		if userID, ok := parseHexID(before.AssignedUser); ok {
			if err := s.users.RemovePendingTask(ctx, userID, taskID); err != nil {
				s.logger.Error().
					Err(err).
					Str("task_id", taskID).
					Str("user_id", before.AssignedUser).
					Msg("failed to remove task from pending list")
				return err
			}
		}
		if userID, ok := parseHexID(after.AssignedUser); ok && !after.Completed {
			if err := s.users.AddPendingTask(ctx, userID, taskID); err != nil {
				s.logger.Error().
					Err(err).
					Str("task_id", taskID).
					Str("user_id", after.AssignedUser).
					Msg("failed to add task to pending list")
				return err
			}
		}
	}

	if before.Completed != after.Completed {
		relevant := after.AssignedUser
		if relevant == "" {
			relevant = before.AssignedUser
		}
		if userID, ok := parseHexID(relevant); ok {
			var err error
			if after.Completed {
				err = s.users.RemovePendingTask(ctx, userID, taskID)
			} else {
				err = s.users.AddPendingTask(ctx, userID, taskID)
			}
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("task_id", taskID).
					Str("user_id", relevant).
					Msg("failed to reconcile pending list")
				return err
			}
		}
	}

	return nil
}

// parseHexID is the tolerant form of storage.ParseID used for ids read
// back from stored documents. An empty or stale value simply reports
// false.
func parseHexID(hex string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(hex)
	return id, err == nil
}
