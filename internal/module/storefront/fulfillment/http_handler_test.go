package fulfillment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/stripe"
	"github.com/joshcrispo/dissonant-pulse/pkg/validator"
)

const webhookSecret = "whsec_test"

type fakeStripeRepository struct {
	sessions map[string]stripe.CheckoutSession
}

func (r *fakeStripeRepository) GetCheckoutSession(_ context.Context, sessionID string) (stripe.CheckoutSession, error) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return stripe.CheckoutSession{}, fmt.Errorf("checkout session '%s' is not found", sessionID)
	}

	return sess, nil
}

type recordingUseCase struct {
	orders []Order
	result FulfillmentResult
	err    error
}

func (u *recordingUseCase) Fulfill(_ context.Context, order Order) (FulfillmentResult, error) {
	u.orders = append(u.orders, order)
	return u.result, u.err
}

func signWebhookPayload(payload []byte) string {
	timestamp := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(t *testing.T, eventType string, session stripe.CheckoutSession) []byte {
	t.Helper()

	object, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]interface{}{"object": json.RawMessage(object)},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	return payload
}

func newWebhookFixture(useCase FulfillmentUseCase, sessions map[string]stripe.CheckoutSession) *mux.Router {
	router := mux.NewRouter()
	InitHTTPHandler(router, HTTPHandlerProperty{
		Validate:           validator.Get(),
		FulfillmentUseCase: useCase,
		StripeRepository:   &fakeStripeRepository{sessions: sessions},
		WebhookSecret:      webhookSecret,
		SignatureTolerance: 5 * time.Minute,
	})

	return router
}

func TestHTTPHandlerOnCheckoutWebhook(t *testing.T) {
	t.Parallel()

	paidSession := stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.PaymentStatusPaid,
		Status:        "complete",
		AmountTotal:   4000,
		Currency:      "gbp",
		Metadata: map[string]string{
			"item_type": "event",
			"item_name": "Nocturne",
			"quantity":  "2",
			"buyer_uid": "u1",
		},
	}

	post := func(router *mux.Router, payload []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/dissonant-pulse/v1/storefront/checkout/webhook", bytes.NewReader(payload))
		req.Header.Set(stripe.SignatureHeader, signature)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	t.Run("fulfills a paid checkout session", func(t *testing.T) {
		t.Parallel()

		useCase := &recordingUseCase{result: FulfillmentResult{Status: StatusPersisted}}
		router := newWebhookFixture(useCase, map[string]stripe.CheckoutSession{"cs_test_1": paidSession})

		payload := webhookPayload(t, stripe.EventCheckoutSessionCompleted, paidSession)
		rec := post(router, payload, signWebhookPayload(payload))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(useCase.orders) != 1 {
			t.Fatalf("expected 1 fulfillment, got %d", len(useCase.orders))
		}

		order := useCase.orders[0]
		if order.ItemType != ItemTypeEvent || order.ItemName != "Nocturne" || order.Quantity != 2 || order.BuyerUID != "u1" {
			t.Fatalf("order was not built from the session metadata: %+v", order)
		}
		if order.IdempotencyToken != "cs_test_1" {
			t.Fatalf("expected the session id as the idempotency token, got %q", order.IdempotencyToken)
		}
	})

	t.Run("rejects an unsigned request", func(t *testing.T) {
		t.Parallel()

		useCase := &recordingUseCase{}
		router := newWebhookFixture(useCase, map[string]stripe.CheckoutSession{"cs_test_1": paidSession})

		payload := webhookPayload(t, stripe.EventCheckoutSessionCompleted, paidSession)
		rec := post(router, payload, "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if len(useCase.orders) != 0 {
			t.Fatal("an unsigned request must not trigger a fulfillment")
		}
	})

	t.Run("ignores event types other than checkout completion", func(t *testing.T) {
		t.Parallel()

		useCase := &recordingUseCase{}
		router := newWebhookFixture(useCase, map[string]stripe.CheckoutSession{"cs_test_1": paidSession})

		payload := webhookPayload(t, "invoice.paid", paidSession)
		rec := post(router, payload, signWebhookPayload(payload))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(useCase.orders) != 0 {
			t.Fatal("an unhandled event type must not trigger a fulfillment")
		}
	})

	t.Run("trusts the re-fetched session over the webhook body", func(t *testing.T) {
		t.Parallel()

		unpaid := paidSession
		unpaid.PaymentStatus = "unpaid"

		useCase := &recordingUseCase{}
		router := newWebhookFixture(useCase, map[string]stripe.CheckoutSession{"cs_test_1": unpaid})

		// The forged body claims the session is paid; the provider says no.
		payload := webhookPayload(t, stripe.EventCheckoutSessionCompleted, paidSession)
		rec := post(router, payload, signWebhookPayload(payload))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(useCase.orders) != 0 {
			t.Fatal("an unpaid session must not trigger a fulfillment")
		}
	})

	t.Run("rejects a session with incomplete metadata", func(t *testing.T) {
		t.Parallel()

		broken := paidSession
		broken.Metadata = map[string]string{"item_type": "event"}

		useCase := &recordingUseCase{}
		router := newWebhookFixture(useCase, map[string]stripe.CheckoutSession{"cs_test_1": broken})

		payload := webhookPayload(t, stripe.EventCheckoutSessionCompleted, broken)
		rec := post(router, payload, signWebhookPayload(payload))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if len(useCase.orders) != 0 {
			t.Fatal("an incomplete order must not trigger a fulfillment")
		}
	})
}

func TestHTTPHandlerOnRetryFulfillment(t *testing.T) {
	t.Parallel()

	useCase := &recordingUseCase{result: FulfillmentResult{Status: StatusPersisted}}
	router := newWebhookFixture(useCase, nil)

	body, _ := json.Marshal(nocturneOrder("cs_test_1", 2))
	req := httptest.NewRequest(http.MethodPost, "/dissonant-pulse/v1/storefront/fulfillments/on-retry", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(useCase.orders) != 1 || useCase.orders[0].IdempotencyToken != "cs_test_1" {
		t.Fatalf("expected the retried order to be fulfilled, got %+v", useCase.orders)
	}
}
