package mongodb

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/joshcrispo/dissonant-pulse/config"
	"github.com/joshcrispo/dissonant-pulse/pkg/applogger"
)

var (
	database *mongo.Database
	once     sync.Once
)

// GetDatabase returns the shared document database handle.
func GetDatabase() *mongo.Database {
	once.Do(func() {
		c := config.Get()
		logger := applogger.GetLogrus()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(c.Mongo.URI).
			SetMaxPoolSize(c.Mongo.MaxPoolSize))
		if err != nil {
			logger.WithError(err).Fatal("an error occurred while connecting to mongodb")
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			logger.WithError(err).Error("an error occurred while pinging mongodb")
		}

		database = client.Database(c.Mongo.Database)
	})

	return database
}
