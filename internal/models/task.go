package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UnassignedName is the assignedUserName carried by every task
// without an assigned user. Clients rely on the literal value.
const UnassignedName = "unassigned"

type Task struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string        `bson:"name" json:"name"`
	Description      string        `bson:"description" json:"description"`
	Deadline         time.Time     `bson:"deadline" json:"deadline"`
	Completed        bool          `bson:"completed" json:"completed"`
	AssignedUser     string        `bson:"assignedUser" json:"assignedUser"`
	AssignedUserName string        `bson:"assignedUserName" json:"assignedUserName"`
	DateCreated      time.Time     `bson:"dateCreated" json:"dateCreated"`
}
