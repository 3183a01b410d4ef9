package user

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// ErrVersionConflict signals that the conditional ledger update lost the race
// against a concurrent writer and the caller should re-read and retry.
var ErrVersionConflict = errors.New(http.StatusConflict, status.CONFLICT, "user document has been modified since it was read")

type UserRepository interface {
	FindByUID(ctx context.Context, uid string) (User, error)
	UpdateLedgerAndCounter(ctx context.Context, uid string, expectedVersion int64, groups []EventTicketGroup, purchaseTracker int64) error
}

type userRepository struct {
	logger     *logrus.Logger
	collection *mongo.Collection
}

func NewUserRepository(logger *logrus.Logger, db *mongo.Database) UserRepository {
	return &userRepository{
		logger:     logger,
		collection: db.Collection("users"),
	}
}

// FindByUID implements UserRepository.
func (r *userRepository) FindByUID(ctx context.Context, uid string) (User, error) {
	var data User

	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return User{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("user account with uid '%s' is not found", uid))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return User{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting user's properties")
	}

	return data, nil
}

// UpdateLedgerAndCounter implements UserRepository. The ledger and the loyalty
// counter are written in one document update, conditional on the version read
// by the caller, so concurrent fulfillments can never clobber each other.
func (r *userRepository) UpdateLedgerAndCounter(ctx context.Context, uid string, expectedVersion int64, groups []EventTicketGroup, purchaseTracker int64) error {
	filter := bson.M{
		"_id":     uid,
		"version": expectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"tickets":          groups,
			"purchase_tracker": purchaseTracker,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating user's ticket ledger")
	}

	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	return nil
}
