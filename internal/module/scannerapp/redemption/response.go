package redemption

import "time"

type RedeemResponse struct {
	TicketID    string     `json:"ticket_id"`
	AlreadyUsed bool       `json:"already_used"`
	RedeemedAt  *time.Time `json:"redeemed_at,omitempty"`
}

func (r *RedeemResponse) PopulateFromOutcome(o RedeemOutcome) {
	r.TicketID = o.TicketID
	r.AlreadyUsed = o.AlreadyUsed

	if !o.RedeemedAt.IsZero() {
		redeemedAt := o.RedeemedAt
		r.RedeemedAt = &redeemedAt
	}
}
