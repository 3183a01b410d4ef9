package fulfillment

import (
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
)

// TicketIssuedEvent is published to the ticket-issued topic once a
// fulfillment reaches the Persisted state.
type TicketIssuedEvent struct {
	Token        string        `json:"token"`
	UID          string        `json:"uid"`
	EventName    string        `json:"event_name"`
	Quantity     int64         `json:"quantity"`
	Tickets      []user.Ticket `json:"tickets"`
	CounterValue int64         `json:"counter_value"`
	IssuedAt     time.Time     `json:"issued_at"`
}
