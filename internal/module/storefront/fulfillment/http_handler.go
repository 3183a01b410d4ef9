package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/stripe"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	publicMiddleware "github.com/joshcrispo/dissonant-pulse/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/pkg/response"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type HTTPHandler struct {
	Validate           *validator.Validate
	FulfillmentUseCase FulfillmentUseCase
	StripeRepository   stripe.StripeRepository
	WebhookSecret      string
	SignatureTolerance time.Duration
}

type HTTPHandlerProperty struct {
	Validate           *validator.Validate
	FulfillmentUseCase FulfillmentUseCase
	StripeRepository   stripe.StripeRepository
	WebhookSecret      string
	SignatureTolerance time.Duration
}

func InitHTTPHandler(router *mux.Router, props HTTPHandlerProperty) {
	handler := &HTTPHandler{
		Validate:           props.Validate,
		FulfillmentUseCase: props.FulfillmentUseCase,
		StripeRepository:   props.StripeRepository,
		WebhookSecret:      props.WebhookSecret,
		SignatureTolerance: props.SignatureTolerance,
	}

	router.HandleFunc("/dissonant-pulse/v1/storefront/checkout/webhook", publicMiddleware.SetRouteChain(handler.OnCheckoutWebhook)).Methods(http.MethodPost)
	router.HandleFunc("/dissonant-pulse/v1/storefront/fulfillments/on-retry", publicMiddleware.SetRouteChain(handler.OnRetryFulfillment)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))
	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf("%s", strings.Join(errMessages, ", "))
}

// OnCheckoutWebhook consumes the payment provider's server-side notification.
// The signature is verified before anything is parsed, and the checkout
// session is re-fetched from the provider so the webhook body itself is never
// the source of truth.
func (handler HTTPHandler) OnCheckoutWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := stripe.VerifySignature(body, r.Header.Get(stripe.SignatureHeader), handler.WebhookSecret, handler.SignatureTolerance, time.Now()); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	var webhookEvent stripe.WebhookEvent
	if err := json.Unmarshal(body, &webhookEvent); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if webhookEvent.Type != stripe.EventCheckoutSessionCompleted {
		response.JSON(w, http.StatusOK, response.RESTEnvelope{
			Status:  status.OK,
			Message: "event type is not handled",
		})

		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(webhookEvent.Data.Object, &session); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	verified, err := handler.StripeRepository.GetCheckoutSession(ctx, session.ID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	if verified.PaymentStatus != stripe.PaymentStatusPaid {
		response.JSON(w, http.StatusOK, response.RESTEnvelope{
			Status:  status.OK,
			Message: "checkout session is not paid",
		})

		return
	}

	quantity, _ := strconv.ParseInt(verified.Metadata["quantity"], 10, 64)
	order := Order{
		ItemType:         ItemType(verified.Metadata["item_type"]),
		ItemName:         verified.Metadata["item_name"],
		Quantity:         quantity,
		BuyerUID:         verified.Metadata["buyer_uid"],
		IdempotencyToken: verified.ID,
	}

	if err := handler.validate(ctx, order); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	handler.fulfill(ctx, w, order)
}

// OnRetryFulfillment re-drives a fulfillment that previously failed to
// persist. Called by the deferred task queue, idempotent by token.
func (handler HTTPHandler) OnRetryFulfillment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order := Order{}
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, order); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	handler.fulfill(ctx, w, order)
}

func (handler HTTPHandler) fulfill(ctx context.Context, w http.ResponseWriter, order Order) {
	result, err := handler.FulfillmentUseCase.Fulfill(ctx, order)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	resp := FulfillmentResponse{}
	resp.PopulateFromResult(result)

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "checkout has been fulfilled",
		Data:    resp,
	})
}
