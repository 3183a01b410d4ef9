package user

import "time"

// Ticket is one admission unit. TicketID doubles as the QR payload, so it has
// to stay stable and globally unique for the lifetime of the ticket.
type Ticket struct {
	TicketID   string     `bson:"ticketID" json:"ticket_id"`
	EventName  string     `bson:"eventName" json:"event_name"`
	CreatedAt  time.Time  `bson:"createdAt" json:"created_at"`
	Date       time.Time  `bson:"date" json:"date"`
	RedeemedAt *time.Time `bson:"redeemedAt,omitempty" json:"redeemed_at,omitempty"`
}

// EventTicketGroup aggregates a user's tickets for one event. The ticket
// sequence is append-only and keeps purchase order.
type EventTicketGroup struct {
	EventName string   `bson:"eventName" json:"event_name"`
	Tickets   []Ticket `bson:"tickets" json:"tickets"`
}

// User is the persisted account document. Tickets and PurchaseTracker are only
// ever mutated together; Version is the stamp the conditional update compares
// against.
type User struct {
	UID             string             `bson:"_id" json:"uid"`
	Email           string             `bson:"email" json:"email"`
	FirstName       string             `bson:"firstName" json:"first_name"`
	PhotoURL        string             `bson:"photoURL" json:"photo_url"`
	Role            string             `bson:"role" json:"role"`
	Tickets         []EventTicketGroup `bson:"tickets" json:"tickets"`
	PurchaseTracker int64              `bson:"purchase_tracker" json:"purchase_tracker"`
	Version         int64              `bson:"version" json:"-"`
}
