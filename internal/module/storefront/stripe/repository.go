package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type StripeRepository interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error)
}

type stripeRepository struct {
	baseURL   string
	secretKey string
	logger    *logrus.Logger
	hc        *http.Client
}

func NewStripeRepository(baseURL string, secretKey string, logger *logrus.Logger, hc *http.Client) StripeRepository {
	return &stripeRepository{
		baseURL:   baseURL,
		secretKey: secretKey,
		logger:    logger,
		hc:        hc,
	}
}

// GetCheckoutSession implements StripeRepository. The session is fetched from
// Stripe rather than trusted from the webhook body, so a forged payload can
// never claim a payment that did not happen.
func (r *stripeRepository) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", r.baseURL, sessionID)

	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CheckoutSession{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting checkout session from stripe")
	}

	hr.Header.Add("Accept", "application/json")
	hr.Header.Add("Authorization", fmt.Sprintf("Bearer %s", r.secretKey))

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CheckoutSession{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting checkout session from stripe")
	}

	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CheckoutSession{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting checkout session from stripe")
	}

	if hresp.StatusCode == http.StatusNotFound {
		return CheckoutSession{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("checkout session '%s' is not found", sessionID))
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		err := fmt.Errorf("stripe responded with status %d: %s", hresp.StatusCode, string(respBody))
		r.logger.WithContext(ctx).WithError(err).Error()
		return CheckoutSession{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting checkout session from stripe")
	}

	var resp CheckoutSession
	if err := json.Unmarshal(respBody, &resp); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return CheckoutSession{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting checkout session from stripe")
	}

	return resp, nil
}
