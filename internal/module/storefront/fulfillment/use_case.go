package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/event"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/loyalty"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/util"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/gctasks"
	"github.com/joshcrispo/dissonant-pulse/pkg/pubsub"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

const ticketIssuedTopic = "ticket-issued"

type FulfillmentUseCase interface {
	Fulfill(ctx context.Context, order Order) (FulfillmentResult, error)
}

type fulfillmentUseCase struct {
	logger             *logrus.Logger
	timeout            time.Duration
	baseURL            string
	maxPersistAttempts int
	retryQueue         string
	retryDelay         time.Duration
	eventRepository    event.EventRepository
	userRepository     user.UserRepository
	recordRepository   FulfillmentRecordRepository
	issuer             TicketIssuer
	tokenGuard         TokenGuard
	publisher          pubsub.Publisher
	cloudTask          gctasks.Client
}

type FulfillmentUseCaseProperty struct {
	Logger             *logrus.Logger
	Timeout            time.Duration
	BaseURL            string
	MaxPersistAttempts int
	RetryQueue         string
	RetryDelay         time.Duration
	EventRepository    event.EventRepository
	UserRepository     user.UserRepository
	RecordRepository   FulfillmentRecordRepository
	Issuer             TicketIssuer
	TokenGuard         TokenGuard
	Publisher          pubsub.Publisher
	CloudTask          gctasks.Client
}

func NewFulfillmentUseCase(props FulfillmentUseCaseProperty) FulfillmentUseCase {
	maxAttempts := props.MaxPersistAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	return &fulfillmentUseCase{
		logger:             props.Logger,
		timeout:            props.Timeout,
		baseURL:            props.BaseURL,
		maxPersistAttempts: maxAttempts,
		retryQueue:         props.RetryQueue,
		retryDelay:         props.RetryDelay,
		eventRepository:    props.EventRepository,
		userRepository:     props.UserRepository,
		recordRepository:   props.RecordRepository,
		issuer:             props.Issuer,
		tokenGuard:         props.TokenGuard,
		publisher:          props.Publisher,
		cloudTask:          props.CloudTask,
	}
}

// Fulfill implements FulfillmentUseCase. It drives one order through
// Received -> Validated -> Issued -> Persisted, with Rejected and
// PersistFailed as the terminal failure states. A replayed idempotency token
// returns the original issuance instead of minting again.
func (u *fulfillmentUseCase) Fulfill(ctx context.Context, order Order) (FulfillmentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	result := FulfillmentResult{Status: StatusReceived}

	// Shop purchases are paid goods without tickets; skipping them is a
	// successful outcome, not an error.
	if order.ItemType == ItemTypeShop {
		return FulfillmentResult{Status: StatusSkipped}, nil
	}

	if order.ItemType != ItemTypeEvent {
		result.Status = StatusRejected
		return result, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unknown item type '%s'", order.ItemType))
	}
	if order.Quantity < 1 {
		result.Status = StatusRejected
		return result, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "order quantity must be at least 1")
	}
	if order.IdempotencyToken == "" {
		result.Status = StatusRejected
		return result, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "idempotency token is required")
	}

	if _, err := u.userRepository.FindByUID(ctx, order.BuyerUID); err != nil {
		result.Status = StatusRejected
		return result, err
	}

	ev, err := u.eventRepository.FindByName(ctx, order.ItemName)
	if err != nil {
		result.Status = StatusRejected
		return result, err
	}

	result.Status = StatusValidated

	acquired, guardErr := u.tokenGuard.Acquire(ctx, order.IdempotencyToken)
	if guardErr != nil {
		// The durable record still protects at-most-once; losing the fast
		// path is not fatal.
		u.logger.WithContext(ctx).WithError(guardErr).Warn("token guard is unavailable, relying on the fulfillment record only")
		acquired = true
	}
	if !acquired {
		if rec, ferr := u.recordRepository.FindByToken(ctx, order.IdempotencyToken); ferr == nil && rec.Status == StatusPersisted {
			return duplicateResult(rec), nil
		}
		return result, errors.New(http.StatusConflict, status.CONFLICT, "fulfillment for this purchase is already in progress")
	}

	tickets, resume, err := u.loadOrIssueTickets(ctx, order, ev)
	if err != nil {
		u.tokenGuard.Release(ctx, order.IdempotencyToken)
		result.Status = StatusRejected
		return result, err
	}
	if resume != nil {
		// Token already fulfilled to completion by an earlier call.
		u.tokenGuard.Release(ctx, order.IdempotencyToken)
		return *resume, nil
	}

	result.Status = StatusIssued

	counter, alreadyApplied, persistErr := u.persist(ctx, order, tickets)
	if persistErr != nil {
		if err := u.recordRepository.UpdateStatus(ctx, order.IdempotencyToken, StatusPersistFailed, 0); err != nil {
			u.logger.WithContext(ctx).WithError(err).Error("an error occurred while marking the fulfillment record as persist-failed")
		}
		u.enqueueRetry(ctx, order)
		u.tokenGuard.Release(ctx, order.IdempotencyToken)
		result.Status = StatusPersistFailed
		return result, persistErr
	}

	if err := u.recordRepository.UpdateStatus(ctx, order.IdempotencyToken, StatusPersisted, counter); err != nil {
		u.logger.WithContext(ctx).WithError(err).Error("an error occurred while marking the fulfillment record as persisted")
	}

	if alreadyApplied {
		// The batch landed on an earlier attempt whose record transition was
		// lost; only the record needed repair.
		return FulfillmentResult{
			Status:          StatusPersisted,
			IssuedTickets:   tickets,
			NewCounterValue: counter,
			RewardEligible:  loyalty.IsEligible(counter),
			Duplicate:       true,
		}, nil
	}

	u.publishTicketIssued(ctx, order, tickets, counter)

	result.Status = StatusPersisted
	result.IssuedTickets = tickets
	result.NewCounterValue = counter
	result.RewardEligible = loyalty.IsEligible(counter)

	return result, nil
}

// loadOrIssueTickets returns the ticket batch for the order's token. A token
// with an unfinished record resumes its already-minted batch; a completed
// record short-circuits with the earlier result.
func (u *fulfillmentUseCase) loadOrIssueTickets(ctx context.Context, order Order, ev event.Event) ([]user.Ticket, *FulfillmentResult, error) {
	rec, err := u.recordRepository.FindByToken(ctx, order.IdempotencyToken)
	if err == nil {
		if rec.Status == StatusPersisted {
			dup := duplicateResult(rec)
			return nil, &dup, nil
		}
		return rec.Tickets, nil, nil
	}
	if errors.Destruct(err).HTTPStatusCode != http.StatusNotFound {
		return nil, nil, err
	}

	tickets, err := u.issuer.Issue(order, ev.StartDate)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	record := FulfillmentRecord{
		ID:        util.GenerateTimestampWithPrefix("FF"),
		Token:     order.IdempotencyToken,
		UID:       order.BuyerUID,
		EventName: order.ItemName,
		Quantity:  order.Quantity,
		Status:    StatusIssued,
		Tickets:   tickets,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.recordRepository.Save(ctx, record); err != nil {
		if err != ErrTokenAlreadyFulfilled {
			return nil, nil, err
		}

		// A concurrent attempt slipped past the guard and inserted first.
		existing, ferr := u.recordRepository.FindByToken(ctx, order.IdempotencyToken)
		if ferr != nil {
			return nil, nil, ferr
		}
		if existing.Status == StatusPersisted {
			dup := duplicateResult(existing)
			return nil, &dup, nil
		}
		return existing.Tickets, nil, nil
	}

	return tickets, nil, nil
}

// persist applies the pure merge/increment transforms inside a bounded
// compare-and-swap loop over the user document. A batch whose ids are already
// in the ledger is reported as applied without merging again: a resumed record
// may be stuck in Issued even though its write landed.
func (u *fulfillmentUseCase) persist(ctx context.Context, order Order, tickets []user.Ticket) (counter int64, alreadyApplied bool, err error) {
	for attempt := 0; attempt < u.maxPersistAttempts; attempt++ {
		usr, err := u.userRepository.FindByUID(ctx, order.BuyerUID)
		if err != nil {
			return 0, false, err
		}

		if ledgerContains(usr.Tickets, tickets) {
			return usr.PurchaseTracker, true, nil
		}

		groups := MergeTickets(usr.Tickets, order.ItemName, tickets)
		counter := loyalty.Increment(usr.PurchaseTracker, int64(len(tickets)))

		err = u.userRepository.UpdateLedgerAndCounter(ctx, usr.UID, usr.Version, groups, counter)
		if err == user.ErrVersionConflict {
			continue
		}
		if err != nil {
			return 0, false, err
		}

		return counter, false, nil
	}

	return 0, false, errors.New(http.StatusConflict, status.CONFLICT, "fulfillment could not be persisted after repeated write conflicts; it will be retried")
}

// ledgerContains reports whether any ticket of the batch is already in the
// ledger. The batch is written in one document update, so a single hit means
// the whole batch landed.
func ledgerContains(groups []user.EventTicketGroup, tickets []user.Ticket) bool {
	ids := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		ids[t.TicketID] = struct{}{}
	}

	for _, g := range groups {
		for _, t := range g.Tickets {
			if _, ok := ids[t.TicketID]; ok {
				return true
			}
		}
	}

	return false
}

func (u *fulfillmentUseCase) publishTicketIssued(ctx context.Context, order Order, tickets []user.Ticket, counter int64) {
	if u.publisher == nil {
		return
	}

	e := TicketIssuedEvent{
		Token:        order.IdempotencyToken,
		UID:          order.BuyerUID,
		EventName:    order.ItemName,
		Quantity:     int64(len(tickets)),
		Tickets:      tickets,
		CounterValue: counter,
		IssuedAt:     time.Now().UTC(),
	}

	buff, _ := json.Marshal(e)
	if err := u.publisher.Publish(ctx, ticketIssuedTopic, order.IdempotencyToken, nil, buff); err != nil {
		u.logger.WithContext(ctx).WithError(err).Error("an error occurred while publishing ticket-issued event")
	}
}

// enqueueRetry schedules a deferred re-drive of the fulfillment so a paid-for
// purchase is never silently abandoned after a persist failure.
func (u *fulfillmentUseCase) enqueueRetry(ctx context.Context, order Order) {
	if u.cloudTask == nil {
		return
	}

	body, _ := json.Marshal(order)
	request := gctasks.Request{
		URL:    fmt.Sprintf("%s/dissonant-pulse/v1/storefront/fulfillments/on-retry", u.baseURL),
		Method: cloudtaskspb.HttpMethod_POST,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}

	if err := u.cloudTask.DeferCreateTaskInDuration(u.retryQueue, request, u.retryDelay); err != nil {
		u.logger.WithContext(ctx).WithError(err).Error("an error occurred while scheduling the fulfillment retry")
	}
}

func duplicateResult(rec FulfillmentRecord) FulfillmentResult {
	return FulfillmentResult{
		Status:          StatusPersisted,
		IssuedTickets:   rec.Tickets,
		NewCounterValue: rec.CounterValue,
		RewardEligible:  loyalty.IsEligible(rec.CounterValue),
		Duplicate:       true,
	}
}
