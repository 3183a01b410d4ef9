package fulfillment

import (
	"net/http"
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// TicketIssuer turns a validated order into ticket values. It is pure with
// respect to persisted state.
type TicketIssuer interface {
	Issue(order Order, eventDate time.Time) ([]user.Ticket, error)
}

type ticketIssuer struct {
	identity TicketIdentity
	clock    clock.Clock
}

func NewTicketIssuer(identity TicketIdentity, clk clock.Clock) TicketIssuer {
	return &ticketIssuer{
		identity: identity,
		clock:    clk,
	}
}

// Issue implements TicketIssuer. The ticket date is copied from the catalog
// entry at issuance; a zero eventDate falls back to the issuance time.
func (i *ticketIssuer) Issue(order Order, eventDate time.Time) ([]user.Ticket, error) {
	if order.Quantity < 1 {
		return nil, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "order quantity must be at least 1")
	}

	now := i.clock.Now()
	date := eventDate
	if date.IsZero() {
		date = now
	}

	ids := i.identity.Mint(order.ItemName, order.Quantity)

	tickets := make([]user.Ticket, 0, len(ids))
	for _, id := range ids {
		tickets = append(tickets, user.Ticket{
			TicketID:  id,
			EventName: order.ItemName,
			CreatedAt: now,
			Date:      date,
		})
	}

	return tickets, nil
}
