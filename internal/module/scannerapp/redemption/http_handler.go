package redemption

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	publicMiddleware "github.com/joshcrispo/dissonant-pulse/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/pkg/response"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type HTTPHandler struct {
	Validate          *validator.Validate
	RedemptionUseCase RedemptionUseCase
}

func InitHTTPHandler(router *mux.Router, validate *validator.Validate, redemptionUseCase RedemptionUseCase) {
	handler := &HTTPHandler{
		Validate:          validate,
		RedemptionUseCase: redemptionUseCase,
	}

	router.HandleFunc("/dissonant-pulse/v1/scannerapp/redemptions", publicMiddleware.SetRouteChain(handler.Redeem)).Methods(http.MethodPost)
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

func (handler HTTPHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := RedeemRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.RedemptionUseCase.Redeem(ctx, req.TicketID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "ticket redemption processed",
		Data:    resp,
	})
}
