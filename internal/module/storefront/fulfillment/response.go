package fulfillment

import (
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
)

type TicketResponse struct {
	TicketID  string    `json:"ticket_id"`
	EventName string    `json:"event_name"`
	CreatedAt time.Time `json:"created_at"`
	Date      time.Time `json:"date"`
}

type FulfillmentResponse struct {
	Status          Status           `json:"status"`
	Duplicate       bool             `json:"duplicate"`
	Tickets         []TicketResponse `json:"tickets"`
	PurchaseTracker int64            `json:"purchase_tracker"`
	RewardEligible  bool             `json:"reward_eligible"`
}

func (r *FulfillmentResponse) PopulateFromResult(res FulfillmentResult) {
	r.Status = res.Status
	r.Duplicate = res.Duplicate
	r.PurchaseTracker = res.NewCounterValue
	r.RewardEligible = res.RewardEligible

	tickets := make([]TicketResponse, len(res.IssuedTickets))
	for k, t := range res.IssuedTickets {
		tickets[k] = ticketResponseFromEntity(t)
	}
	r.Tickets = tickets
}

func ticketResponseFromEntity(t user.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:  t.TicketID,
		EventName: t.EventName,
		CreatedAt: t.CreatedAt,
		Date:      t.Date,
	}
}
