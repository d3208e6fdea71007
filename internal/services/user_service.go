package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/epavlenko/taskboard/internal/models"
	"github.com/epavlenko/taskboard/internal/query"
	"github.com/epavlenko/taskboard/internal/storage"
)

type userServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
	tasks  storage.TaskStore
}

func NewUserService(
	logger zerolog.Logger,
	users storage.UserStore,
	tasks storage.TaskStore,
) UserService {
	return &userServiceImpl{
		logger: logger,
		users:  users,
		tasks:  tasks,
	}
}

func (s *userServiceImpl) ListUsers(ctx context.Context, q query.Query) ([]models.User, error) {
	users, err := s.users.Find(ctx, q)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list users")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("listed users")

	return users, nil
}

func (s *userServiceImpl) CountUsers(ctx context.Context, q query.Query) (int64, error) {
	count, err := s.users.Count(ctx, q)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count users")
		return 0, err
	}

	return count, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, id string, sel map[string]bool) (*models.User, error) {
	userID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("user_id", id).
			Msg("malformed user id")
		return nil, ErrMalformedID
	}

	user, err := s.users.FindByID(ctx, userID, sel)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("user_id", id).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to fetch user")
		return nil, err
	}

	return user, nil
}

func (s *userServiceImpl) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	email := normalizeEmail(params.Email)
	if err := validateUserFields(params.Name, email); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         params.Name,
		Email:        email,
		PendingTasks: dedupeIDs(params.PendingTasks),
		DateCreated:  time.Now().UTC(),
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if storage.IsDuplicateKey(err) {
			s.logger.Warn().
				Str("email", email).
				Msg("email already in use")
			return nil, ErrEmailTaken
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID.Hex()).
		Msg("inserted user")

	s.logger.Info().
		Str("user_id", user.ID.Hex()).
		Msg("created user")
	return user, nil
}

func (s *userServiceImpl) ReplaceUser(ctx context.Context, id string, params ReplaceUserParams) (*models.User, error) {
	userID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("user_id", id).
			Msg("malformed user id")
		return nil, ErrMalformedID
	}

	existing, err := s.users.FindByID(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("user_id", id).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to fetch user")
		return nil, err
	}

	email := normalizeEmail(params.Email)
	if err = validateUserFields(params.Name, email); err != nil {
		return nil, err
	}

	pending := dedupeIDs(params.PendingTasks)
	added, removed := diffIDs(pending, existing.PendingTasks)

	// Compensating task updates run first so the task side never
	// trails a successfully replaced user document.
	if err = s.assignTasks(ctx, userID, params.Name, added); err != nil {
		return nil, err
	}
	if err = s.unassignTasks(ctx, removed); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           userID,
		Name:         params.Name,
		Email:        email,
		PendingTasks: pending,
		DateCreated:  existing.DateCreated,
	}

	if err = s.users.Replace(ctx, user); err != nil {
		if storage.IsDuplicateKey(err) {
			s.logger.Warn().
				Str("email", email).
				Msg("email already in use")
			return nil, ErrEmailTaken
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to replace user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", id).
		Int("added", len(added)).
		Int("removed", len(removed)).
		Msg("replaced user")

	s.logger.Info().
		Str("user_id", id).
		Msg("replaced user")
	return user, nil
}

func (s *userServiceImpl) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	userID, err := storage.ParseID(id)
	if err != nil {
		s.logger.Error().
			Str("user_id", id).
			Msg("malformed user id")
		return nil, ErrMalformedID
	}

	user, err := s.users.FindByID(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("user_id", id).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to fetch user")
		return nil, err
	}

	if err = s.unassignTasks(ctx, user.PendingTasks); err != nil {
		return nil, err
	}

	if err = s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to delete user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", id).
		Int("unassigned", len(user.PendingTasks)).
		Msg("deleted user")

	s.logger.Info().
		Str("user_id", id).
		Msg("deleted user")
	return user, nil
}

// assignTasks points the added tasks at the user. A task that is
// already completed cannot become pending again, so the whole batch is
// rejected before anything is written. Ids that match no stored task
// are skipped, mirroring how user creation accepts them unchecked.
func (s *userServiceImpl) assignTasks(ctx context.Context, userID bson.ObjectID, userName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	taskIDs := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		taskID, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		taskIDs = append(taskIDs, taskID)
	}
	if len(taskIDs) == 0 {
		return nil
	}

	tasks, err := s.tasks.FindByIDs(ctx, taskIDs)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to fetch added tasks")
		return err
	}

	for _, task := range tasks {
		if task.Completed {
			s.logger.Warn().
				Str("task_id", task.ID.Hex()).
				Msg("completed task cannot become pending")
			return errValidationf("cannot add completed task %s to pendingTasks", task.ID.Hex())
		}
	}

	for _, task := range tasks {
		if err = s.tasks.SetAssignment(ctx, task.ID, userID.Hex(), userName); err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID.Hex()).
				Msg("failed to assign task")
			return err
		}
	}

	return nil
}

// unassignTasks resets the assignment pair of every referenced task.
// Unknown and malformed ids are skipped.
func (s *userServiceImpl) unassignTasks(ctx context.Context, ids []string) error {
	for _, id := range ids {
		taskID, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if err = s.tasks.SetAssignment(ctx, taskID, "", models.UnassignedName); err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to unassign task")
			return err
		}
	}

	return nil
}

// diffIDs returns the ids present in next but not in prev, and the
// ones present in prev but not in next, both in list order.
func diffIDs(next, prev []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		prevSet[id] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, id := range next {
		nextSet[id] = struct{}{}
	}

	for _, id := range next {
		if _, ok := prevSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := nextSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	return added, removed
}
