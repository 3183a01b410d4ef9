package fulfillment

import "github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"

// MergeTickets appends newTickets to the group for eventName, creating the
// group if it does not exist yet. The input slice is not mutated so the caller
// can reapply the transform on a fresh read after a version conflict.
//
// The merge never deduplicates: issuance is deduplicated upstream by the
// idempotency token, and a legitimate second purchase of the same event must
// append.
func MergeTickets(groups []user.EventTicketGroup, eventName string, newTickets []user.Ticket) []user.EventTicketGroup {
	merged := make([]user.EventTicketGroup, len(groups))
	copy(merged, groups)

	for k, g := range merged {
		if g.EventName != eventName {
			continue
		}

		tickets := make([]user.Ticket, 0, len(g.Tickets)+len(newTickets))
		tickets = append(tickets, g.Tickets...)
		tickets = append(tickets, newTickets...)
		merged[k].Tickets = tickets

		return merged
	}

	return append(merged, user.EventTicketGroup{
		EventName: eventName,
		Tickets:   append([]user.Ticket(nil), newTickets...),
	})
}
