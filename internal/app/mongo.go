package app

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/epavlenko/taskboard/internal/config"
	"github.com/epavlenko/taskboard/internal/storage"
)

var (
	globalMongoClient *mongo.Client
	globalStore       *storage.Store
)

func MustConnectMongo() {
	cfg := config.Global().Mongo

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to mongo")
		panic(err)
	}
	globalMongoClient = client

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping mongo")
		panic(err)
	}

	globalStore = storage.New(client.Database(cfg.Database))
	err = globalStore.EnsureIndexes(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ensure mongo indexes")
		panic(err)
	}

	globalLogger.Info().
		Str("uri", cfg.MaskedURI()).
		Str("database", cfg.Database).
		Msg("connected to mongo")
}

func DisconnectMongo() {
	err := globalMongoClient.Disconnect(context.Background())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to disconnect from mongo")
		return
	}
	globalLogger.Info().Msg("disconnected from mongo")
}
