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

type taskStore struct {
	c *mongo.Collection
}

var _ TaskStore = (*taskStore)(nil)

func (s *taskStore) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = bson.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, task)
	return err
}

func (s *taskStore) FindByID(ctx context.Context, id bson.ObjectID, sel map[string]bool) (*models.Task, error) {
	opts := options.FindOne()
	if len(sel) > 0 {
		opts.SetProjection(projectionDoc(sel))
	}

	var task models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &task, nil
}

func (s *taskStore) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return []models.Task{}, nil
	}

	cursor, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return tasks, nil
}

func (s *taskStore) Find(ctx context.Context, q query.Query) ([]models.Task, error) {
	cursor, err := s.c.Find(ctx, filterDoc(q.Where), findOptions(q))
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return tasks, nil
}

func (s *taskStore) Count(ctx context.Context, q query.Query) (int64, error) {
	return s.c.CountDocuments(ctx, filterDoc(q.Where))
}

func (s *taskStore) Replace(ctx context.Context, task *models.Task) error {
	result, err := s.c.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *taskStore) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *taskStore) SetAssignment(ctx context.Context, taskID bson.ObjectID, userID, userName string) error {
	_, err := s.c.UpdateByID(ctx, taskID, bson.M{
		"$set": bson.M{
			"assignedUser":     userID,
			"assignedUserName": userName,
		},
	})
	return err
}
