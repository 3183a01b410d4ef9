package fulfillment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// ErrTokenAlreadyFulfilled signals that a record for the idempotency token
// already exists. The caller re-reads the record to decide between returning
// the earlier result and resuming an unfinished persist.
var ErrTokenAlreadyFulfilled = errors.New(http.StatusConflict, status.CONFLICT, "a fulfillment record for this token already exists")

type FulfillmentRecordRepository interface {
	EnsureIndexes(ctx context.Context) error
	Save(ctx context.Context, record FulfillmentRecord) error
	FindByToken(ctx context.Context, token string) (FulfillmentRecord, error)
	UpdateStatus(ctx context.Context, token string, s Status, counterValue int64) error
}

type fulfillmentRecordRepository struct {
	logger     *logrus.Logger
	collection *mongo.Collection
}

func NewFulfillmentRecordRepository(logger *logrus.Logger, db *mongo.Database) FulfillmentRecordRepository {
	return &fulfillmentRecordRepository{
		logger:     logger,
		collection: db.Collection("fulfillments"),
	}
}

// EnsureIndexes creates the unique token index the at-most-once guarantee
// rests on. Called once from main at startup.
func (r *fulfillmentRecordRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while creating fulfillment indexes")
	}

	return nil
}

// Save implements FulfillmentRecordRepository. Inserts are unique per token;
// a duplicate key surfaces ErrTokenAlreadyFulfilled.
func (r *fulfillmentRecordRepository) Save(ctx context.Context, record FulfillmentRecord) error {
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrTokenAlreadyFulfilled
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving fulfillment's properties")
	}

	return nil
}

// FindByToken implements FulfillmentRecordRepository.
func (r *fulfillmentRecordRepository) FindByToken(ctx context.Context, token string) (FulfillmentRecord, error) {
	var data FulfillmentRecord

	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return FulfillmentRecord{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("fulfillment record for token '%s' is not found", token))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return FulfillmentRecord{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting fulfillment's properties")
	}

	return data, nil
}

// UpdateStatus implements FulfillmentRecordRepository.
func (r *fulfillmentRecordRepository) UpdateStatus(ctx context.Context, token string, s Status, counterValue int64) error {
	update := bson.M{
		"$set": bson.M{
			"status":       s,
			"counterValue": counterValue,
			"updatedAt":    time.Now().UTC(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating fulfillment's properties")
	}

	return nil
}
