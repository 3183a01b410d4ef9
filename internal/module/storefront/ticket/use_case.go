package ticket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/event"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/loyalty"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/session"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

const qrImageSize = 256

type TicketUseCase interface {
	GetManyTicket(ctx context.Context) (GetManyTicketResponse, error)
	GetTicketQR(ctx context.Context, ticketID string) ([]byte, error)
	GetLoyaltyStatus(ctx context.Context) (LoyaltyStatusResponse, error)
}

type ticketUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	clock           clock.Clock
	userRepository  user.UserRepository
	eventRepository event.EventRepository
}

type TicketUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	Clock           clock.Clock
	UserRepository  user.UserRepository
	EventRepository event.EventRepository
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	return &ticketUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		clock:           props.Clock,
		userRepository:  props.UserRepository,
		eventRepository: props.EventRepository,
	}
}

// GetManyTicket implements TicketUseCase. The ledger is grouped per event and
// enriched with catalog data, split into upcoming and past shows.
func (u *ticketUseCase) GetManyTicket(ctx context.Context) (GetManyTicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetManyTicketResponse{}, err
	}

	usr, err := u.userRepository.FindByUID(ctx, acc.UID)
	if err != nil {
		return GetManyTicketResponse{}, err
	}

	names := make([]string, 0, len(usr.Tickets))
	for _, g := range usr.Tickets {
		names = append(names, g.EventName)
	}

	eventsByName := map[string]event.Event{}
	if len(names) > 0 {
		events, err := u.eventRepository.FindManyByNames(ctx, names)
		if err != nil {
			return GetManyTicketResponse{}, err
		}
		for _, e := range events {
			eventsByName[e.EventName] = e
		}
	}

	now := u.clock.Now()
	resp := GetManyTicketResponse{
		Upcoming: make([]EventTicketGroupResponse, 0),
		Past:     make([]EventTicketGroupResponse, 0),
	}

	for _, g := range usr.Tickets {
		group := EventTicketGroupResponse{EventName: g.EventName}
		group.PopulateFromEntities(g, eventsByName[g.EventName])

		if group.StartDate.After(now) {
			resp.Upcoming = append(resp.Upcoming, group)
			continue
		}
		resp.Past = append(resp.Past, group)
	}

	return resp, nil
}

// GetTicketQR implements TicketUseCase. The QR payload is exactly the ticket
// id; tickets outside the caller's ledger are reported as not found rather
// than forbidden.
func (u *ticketUseCase) GetTicketQR(ctx context.Context, ticketID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	usr, err := u.userRepository.FindByUID(ctx, acc.UID)
	if err != nil {
		return nil, err
	}

	if !ownsTicket(usr, ticketID) {
		return nil, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with id '%s' is not found", ticketID))
	}

	png, err := qrcode.Encode(ticketID, qrcode.Medium, qrImageSize)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while encoding the ticket's qr code")
	}

	return png, nil
}

// GetLoyaltyStatus implements TicketUseCase.
func (u *ticketUseCase) GetLoyaltyStatus(ctx context.Context) (LoyaltyStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return LoyaltyStatusResponse{}, err
	}

	usr, err := u.userRepository.FindByUID(ctx, acc.UID)
	if err != nil {
		return LoyaltyStatusResponse{}, err
	}

	current, earned := loyalty.Progress(usr.PurchaseTracker)

	return LoyaltyStatusResponse{
		PurchaseTracker: usr.PurchaseTracker,
		RewardThreshold: loyalty.RewardThreshold,
		RewardEligible:  loyalty.IsEligible(usr.PurchaseTracker),
		Progress:        current,
		RewardsEarned:   earned,
	}, nil
}

func ownsTicket(usr user.User, ticketID string) bool {
	for _, g := range usr.Tickets {
		for _, t := range g.Tickets {
			if t.TicketID == ticketID {
				return true
			}
		}
	}

	return false
}
