package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestParseID(t *testing.T) {
	id := bson.NewObjectID()

	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("not-a-hex-id")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseID("")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}))
	assert.False(t, IsDuplicateKey(errors.New("connection reset")))
	assert.False(t, IsDuplicateKey(nil))
}
