package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(t *testing.T, payload []byte, secret string, timestamp int64) string {
	t.Helper()

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"

	now := time.Date(2024, time.March, 1, 21, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		t.Parallel()

		header := signPayload(t, payload, secret, now.Unix())
		if err := VerifySignature(payload, header, secret, 5*time.Minute, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("accepts any matching signature among several v1 entries", func(t *testing.T) {
		t.Parallel()

		mac := hmac.New(sha256.New, []byte(secret))
		fmt.Fprintf(mac, "%d.%s", now.Unix(), payload)
		validHex := hex.EncodeToString(mac.Sum(nil))

		header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), hex.EncodeToString(make([]byte, 32)), validHex)
		if err := VerifySignature(payload, header, secret, 5*time.Minute, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects a signature made with another secret", func(t *testing.T) {
		t.Parallel()

		header := signPayload(t, payload, "whsec_other", now.Unix())
		if err := VerifySignature(payload, header, secret, 5*time.Minute, now); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		t.Parallel()

		header := signPayload(t, payload, secret, now.Unix())
		if err := VerifySignature([]byte(`{"id":"evt_2"}`), header, secret, 5*time.Minute, now); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		t.Parallel()

		stale := now.Add(-10 * time.Minute).Unix()
		header := signPayload(t, payload, secret, stale)
		if err := VerifySignature(payload, header, secret, 5*time.Minute, now); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		t.Parallel()

		for _, header := range []string{"", "t=abc,v1=def", "v1=deadbeef", fmt.Sprintf("t=%d", now.Unix())} {
			if err := VerifySignature(payload, header, secret, 5*time.Minute, now); err == nil {
				t.Fatalf("expected an error for header %q", header)
			}
		}
	})
}
