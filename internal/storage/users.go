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

type userStore struct {
	c *mongo.Collection
}

var _ UserStore = (*userStore)(nil)

func (s *userStore) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, user)
	return err
}

func (s *userStore) FindByID(ctx context.Context, id bson.ObjectID, sel map[string]bool) (*models.User, error) {
	opts := options.FindOne()
	if len(sel) > 0 {
		opts.SetProjection(projectionDoc(sel))
	}

	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}

	return &user, nil
}

func (s *userStore) Find(ctx context.Context, q query.Query) ([]models.User, error) {
	cursor, err := s.c.Find(ctx, filterDoc(q.Where), findOptions(q))
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		if users[i].PendingTasks == nil {
			users[i].PendingTasks = []string{}
		}
	}

	return users, nil
}

func (s *userStore) Count(ctx context.Context, q query.Query) (int64, error) {
	return s.c.CountDocuments(ctx, filterDoc(q.Where))
}

func (s *userStore) Replace(ctx context.Context, user *models.User) error {
	result, err := s.c.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) AddPendingTask(ctx context.Context, userID bson.ObjectID, taskID string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$addToSet": bson.M{"pendingTasks": taskID},
	})
	return err
}

func (s *userStore) RemovePendingTask(ctx context.Context, userID bson.ObjectID, taskID string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"pendingTasks": taskID},
	})
	return err
}
