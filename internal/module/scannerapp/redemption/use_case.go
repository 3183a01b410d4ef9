package redemption

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
)

// RedemptionUseCase marks tickets consumed at the point of entry. Redeeming
// is idempotent: only the first scan mutates the ticket.
type RedemptionUseCase interface {
	Redeem(ctx context.Context, ticketID string) (RedeemResponse, error)
}

type redemptionUseCase struct {
	logger           *logrus.Logger
	timeout          time.Duration
	clock            clock.Clock
	ticketRepository TicketRepository
}

type RedemptionUseCaseProperty struct {
	Logger           *logrus.Logger
	Timeout          time.Duration
	Clock            clock.Clock
	TicketRepository TicketRepository
}

func NewRedemptionUseCase(props RedemptionUseCaseProperty) RedemptionUseCase {
	return &redemptionUseCase{
		logger:           props.Logger,
		timeout:          props.Timeout,
		clock:            props.Clock,
		ticketRepository: props.TicketRepository,
	}
}

// Redeem implements RedemptionUseCase.
func (u *redemptionUseCase) Redeem(ctx context.Context, ticketID string) (RedeemResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	outcome, err := u.ticketRepository.Redeem(ctx, ticketID, u.clock.Now())
	if err != nil {
		return RedeemResponse{}, err
	}

	resp := RedeemResponse{}
	resp.PopulateFromOutcome(outcome)

	return resp, nil
}
