package redemption

type RedeemRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
}
