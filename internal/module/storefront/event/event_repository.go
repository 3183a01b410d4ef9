package event

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

type EventRepository interface {
	FindByName(ctx context.Context, eventName string) (Event, error)
	FindManyByNames(ctx context.Context, eventNames []string) ([]Event, error)
}

type eventRepository struct {
	logger     *logrus.Logger
	collection *mongo.Collection
}

func NewEventRepository(logger *logrus.Logger, db *mongo.Database) EventRepository {
	return &eventRepository{
		logger:     logger,
		collection: db.Collection("events"),
	}
}

// FindByName implements EventRepository.
func (r *eventRepository) FindByName(ctx context.Context, eventName string) (Event, error) {
	var data Event

	err := r.collection.FindOne(ctx, bson.M{"eventName": eventName}).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with name '%s' is not found", eventName))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	return data, nil
}

// FindManyByNames implements EventRepository.
func (r *eventRepository) FindManyByNames(ctx context.Context, eventNames []string) ([]Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"eventName": bson.M{"$in": eventNames}})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
	}
	defer cursor.Close(ctx)

	var data = make([]Event, 0)
	if err := cursor.All(ctx, &data); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event's properties")
	}

	return data, nil
}
