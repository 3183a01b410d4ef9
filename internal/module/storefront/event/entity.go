package event

import "time"

// Event is a read-only catalog record. Tickets reference events by name, not
// by surrogate id.
type Event struct {
	ID        string    `bson:"_id" json:"id"`
	EventName string    `bson:"eventName" json:"event_name"`
	Artists   []string  `bson:"artists" json:"artists"`
	Club      string    `bson:"club" json:"club"`
	Location  string    `bson:"location" json:"location"`
	StartDate time.Time `bson:"startDate" json:"start_date"`
	EndDate   time.Time `bson:"endDate" json:"end_date"`
	Price     float64   `bson:"price" json:"price"`
	PhotoURL  string    `bson:"photoURL" json:"photo_url"`
}
