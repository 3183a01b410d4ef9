package redemption

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

type RedeemOutcome struct {
	TicketID    string
	AlreadyUsed bool
	RedeemedAt  time.Time
}

type TicketRepository interface {
	Redeem(ctx context.Context, ticketID string, now time.Time) (RedeemOutcome, error)
}

type ticketRepository struct {
	logger     *logrus.Logger
	collection *mongo.Collection
}

func NewTicketRepository(logger *logrus.Logger, db *mongo.Database) TicketRepository {
	return &ticketRepository{
		logger:     logger,
		collection: db.Collection("users"),
	}
}

// Redeem implements TicketRepository. The redemption mark is a conditional
// single-document update that only matches while the ticket is unredeemed, so
// under concurrent scans exactly one caller wins.
func (r *ticketRepository) Redeem(ctx context.Context, ticketID string, now time.Time) (RedeemOutcome, error) {
	filter := bson.M{
		"tickets.tickets": bson.M{
			"$elemMatch": bson.M{
				"ticketID":   ticketID,
				"redeemedAt": bson.M{"$eq": nil},
			},
		},
	}
	update := bson.M{
		"$set": bson.M{"tickets.$[g].tickets.$[t].redeemedAt": now},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"g.tickets.ticketID": ticketID},
			bson.M{"t.ticketID": ticketID, "t.redeemedAt": bson.M{"$eq": nil}},
		},
	})

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return RedeemOutcome{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while redeeming the ticket")
	}

	if result.ModifiedCount == 1 {
		return RedeemOutcome{TicketID: ticketID, AlreadyUsed: false, RedeemedAt: now}, nil
	}

	// No unredeemed match: either the ticket was already used or it does not
	// exist at all.
	count, err := r.collection.CountDocuments(ctx, bson.M{"tickets.tickets.ticketID": ticketID})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return RedeemOutcome{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while redeeming the ticket")
	}

	if count == 0 {
		return RedeemOutcome{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with id '%s' is not found", ticketID))
	}

	return RedeemOutcome{TicketID: ticketID, AlreadyUsed: true}, nil
}
