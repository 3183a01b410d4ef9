package fulfillment

import (
	"strings"
	"testing"
)

func TestTicketIdentityMint(t *testing.T) {
	t.Parallel()

	identity := NewTicketIdentity()

	t.Run("mints the requested number of identifiers", func(t *testing.T) {
		t.Parallel()

		ids := identity.Mint("Nocturne", 3)
		if len(ids) != 3 {
			t.Fatalf("expected 3 identifiers, got %d", len(ids))
		}
	})

	t.Run("prefixes every identifier with the event name", func(t *testing.T) {
		t.Parallel()

		for _, id := range identity.Mint("Nocturne", 4) {
			if !strings.HasPrefix(id, "Nocturne-") {
				t.Fatalf("identifier %q does not carry the event name prefix", id)
			}
		}
	})

	t.Run("never repeats an identifier", func(t *testing.T) {
		t.Parallel()

		seen := map[string]struct{}{}
		for i := 0; i < 100; i++ {
			for _, id := range identity.Mint("Nocturne", 5) {
				if _, ok := seen[id]; ok {
					t.Fatalf("identifier %q was minted twice", id)
				}
				seen[id] = struct{}{}
			}
		}
	})

	t.Run("returns an empty batch for a non-positive quantity", func(t *testing.T) {
		t.Parallel()

		if got := identity.Mint("Nocturne", 0); len(got) != 0 {
			t.Fatalf("expected no identifiers for quantity 0, got %d", len(got))
		}
		if got := identity.Mint("Nocturne", -2); len(got) != 0 {
			t.Fatalf("expected no identifiers for a negative quantity, got %d", len(got))
		}
	})
}
