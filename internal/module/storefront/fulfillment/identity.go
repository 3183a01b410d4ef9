package fulfillment

import (
	"fmt"

	"github.com/google/uuid"
)

// TicketIdentity mints globally unique ticket identifiers. Uniqueness rests on
// the 128 bits of randomness in the uuid, not on a storage lookup.
type TicketIdentity interface {
	Mint(eventName string, quantity int64) []string
}

type ticketIdentity struct{}

func NewTicketIdentity() TicketIdentity {
	return ticketIdentity{}
}

// Mint implements TicketIdentity. The event name prefix keeps the identifier
// human-traceable when it shows up in a scanner log.
func (ticketIdentity) Mint(eventName string, quantity int64) []string {
	if quantity <= 0 {
		return []string{}
	}

	ids := make([]string, 0, quantity)
	for i := int64(0); i < quantity; i++ {
		ids = append(ids, fmt.Sprintf("%s-%s", eventName, uuid.NewString()))
	}

	return ids
}
