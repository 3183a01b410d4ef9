package redemption

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

// fakeTicketRepository mirrors the conditional-update contract: the first
// redeem of a known ticket wins, every later one reports already used.
type fakeTicketRepository struct {
	mu       sync.Mutex
	redeemed map[string]time.Time
	known    map[string]bool
}

func (r *fakeTicketRepository) Redeem(_ context.Context, ticketID string, now time.Time) (RedeemOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known[ticketID] {
		return RedeemOutcome{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket with id '%s' is not found", ticketID))
	}

	if _, ok := r.redeemed[ticketID]; ok {
		return RedeemOutcome{TicketID: ticketID, AlreadyUsed: true}, nil
	}

	r.redeemed[ticketID] = now

	return RedeemOutcome{TicketID: ticketID, AlreadyUsed: false, RedeemedAt: now}, nil
}

func newRedemptionFixture(known ...string) (RedemptionUseCase, *fakeTicketRepository) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := &fakeTicketRepository{
		redeemed: map[string]time.Time{},
		known:    map[string]bool{},
	}
	for _, id := range known {
		repo.known[id] = true
	}

	useCase := NewRedemptionUseCase(RedemptionUseCaseProperty{
		Logger:           logger,
		Timeout:          5 * time.Second,
		Clock:            clock.NewFixed(time.Date(2024, time.June, 21, 23, 30, 0, 0, time.UTC)),
		TicketRepository: repo,
	})

	return useCase, repo
}

func TestRedemptionUseCaseRedeem(t *testing.T) {
	t.Parallel()

	t.Run("redeems an unused ticket", func(t *testing.T) {
		t.Parallel()

		useCase, _ := newRedemptionFixture("Nocturne-1")

		resp, err := useCase.Redeem(context.Background(), "Nocturne-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.AlreadyUsed {
			t.Fatal("the first scan must not report already used")
		}
		if resp.RedeemedAt == nil {
			t.Fatal("the first scan must report the redemption time")
		}
	})

	t.Run("reports a second scan as already used", func(t *testing.T) {
		t.Parallel()

		useCase, _ := newRedemptionFixture("Nocturne-1")

		if _, err := useCase.Redeem(context.Background(), "Nocturne-1"); err != nil {
			t.Fatalf("unexpected error on the first scan: %v", err)
		}

		resp, err := useCase.Redeem(context.Background(), "Nocturne-1")
		if err != nil {
			t.Fatalf("unexpected error on the second scan: %v", err)
		}
		if !resp.AlreadyUsed {
			t.Fatal("the second scan must report already used")
		}
		if resp.RedeemedAt != nil {
			t.Fatal("an already-used response must not carry a fresh redemption time")
		}
	})

	t.Run("reports an unknown ticket as not found", func(t *testing.T) {
		t.Parallel()

		useCase, _ := newRedemptionFixture("Nocturne-1")

		_, err := useCase.Redeem(context.Background(), "Nocturne-forged")
		if err == nil {
			t.Fatal("expected an error")
		}
		if got := errors.Destruct(err).HTTPStatusCode; got != http.StatusNotFound {
			t.Fatalf("expected http status 404, got %d", got)
		}
	})

	t.Run("only one concurrent scan wins", func(t *testing.T) {
		t.Parallel()

		useCase, _ := newRedemptionFixture("Nocturne-1")

		const scanners = 8

		var wg sync.WaitGroup
		results := make([]RedeemResponse, scanners)
		for i := 0; i < scanners; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = useCase.Redeem(context.Background(), "Nocturne-1")
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, r := range results {
			if !r.AlreadyUsed {
				wins++
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly 1 winning scan, got %d", wins)
		}
	})
}
