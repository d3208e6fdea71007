package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User owns an ordered list of pending task ids. The list mirrors the
// assignedUser field of the referenced tasks and is kept in sync by
// the services layer, not by the database.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PendingTasks []string      `bson:"pendingTasks" json:"pendingTasks"`
	DateCreated  time.Time     `bson:"dateCreated" json:"dateCreated"`
}
