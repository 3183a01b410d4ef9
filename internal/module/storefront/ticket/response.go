package ticket

import (
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/event"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
)

type TicketResponse struct {
	TicketID   string     `json:"ticket_id"`
	EventName  string     `json:"event_name"`
	CreatedAt  time.Time  `json:"created_at"`
	Date       time.Time  `json:"date"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

type EventTicketGroupResponse struct {
	EventName string           `json:"event_name"`
	Club      string           `json:"club"`
	Location  string           `json:"location"`
	PhotoURL  string           `json:"photo_url"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Tickets   []TicketResponse `json:"tickets"`
}

func (r *EventTicketGroupResponse) PopulateFromEntities(g user.EventTicketGroup, e event.Event) {
	r.EventName = g.EventName
	r.Club = e.Club
	r.Location = e.Location
	r.PhotoURL = e.PhotoURL
	r.StartDate = e.StartDate
	r.EndDate = e.EndDate

	tickets := make([]TicketResponse, len(g.Tickets))
	for k, t := range g.Tickets {
		tickets[k] = TicketResponse{
			TicketID:   t.TicketID,
			EventName:  t.EventName,
			CreatedAt:  t.CreatedAt,
			Date:       t.Date,
			RedeemedAt: t.RedeemedAt,
		}
	}
	r.Tickets = tickets
}

type GetManyTicketResponse struct {
	Upcoming []EventTicketGroupResponse `json:"upcoming"`
	Past     []EventTicketGroupResponse `json:"past"`
}

type LoyaltyStatusResponse struct {
	PurchaseTracker int64 `json:"purchase_tracker"`
	RewardThreshold int64 `json:"reward_threshold"`
	RewardEligible  bool  `json:"reward_eligible"`
	Progress        int64 `json:"progress"`
	RewardsEarned   int64 `json:"rewards_earned"`
}
