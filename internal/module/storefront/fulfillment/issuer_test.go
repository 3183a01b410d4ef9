package fulfillment

import (
	"testing"
	"time"

	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
)

func TestTicketIssuerIssue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 1, 21, 0, 0, 0, time.UTC)
	eventDate := time.Date(2024, time.June, 21, 23, 0, 0, 0, time.UTC)

	issuer := NewTicketIssuer(NewTicketIdentity(), clock.NewFixed(now))

	order := Order{
		ItemType:         ItemTypeEvent,
		ItemName:         "Nocturne",
		Quantity:         2,
		BuyerUID:         "u1",
		IdempotencyToken: "cs_test_1",
	}

	t.Run("issues one ticket per unit of quantity", func(t *testing.T) {
		t.Parallel()

		tickets, err := issuer.Issue(order, eventDate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tickets) != 2 {
			t.Fatalf("expected 2 tickets, got %d", len(tickets))
		}

		for _, tk := range tickets {
			if tk.EventName != "Nocturne" {
				t.Fatalf("expected event name Nocturne, got %q", tk.EventName)
			}
			if !tk.CreatedAt.Equal(now) {
				t.Fatalf("expected issuance time %v, got %v", now, tk.CreatedAt)
			}
			if !tk.Date.Equal(eventDate) {
				t.Fatalf("expected the catalog's event date %v, got %v", eventDate, tk.Date)
			}
			if tk.RedeemedAt != nil {
				t.Fatal("a freshly issued ticket must not be redeemed")
			}
		}
	})

	t.Run("falls back to the issuance time when the catalog has no date", func(t *testing.T) {
		t.Parallel()

		tickets, err := issuer.Issue(order, time.Time{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tickets[0].Date.Equal(now) {
			t.Fatalf("expected fallback date %v, got %v", now, tickets[0].Date)
		}
	})

	t.Run("rejects a non-positive quantity", func(t *testing.T) {
		t.Parallel()

		bad := order
		bad.Quantity = 0

		if _, err := issuer.Issue(bad, eventDate); err == nil {
			t.Fatal("expected an error for quantity 0")
		}
	})
}
