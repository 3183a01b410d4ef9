package ticket

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joshcrispo/dissonant-pulse/internal/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	publicMiddleware "github.com/joshcrispo/dissonant-pulse/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/pkg/response"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type HTTPHandler struct {
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/dissonant-pulse/v1/storefront/tickets", publicMiddleware.SetRouteChain(handler.GetManyTicket, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/dissonant-pulse/v1/storefront/tickets/{ticketID}/qr", publicMiddleware.SetRouteChain(handler.GetTicketQR, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/dissonant-pulse/v1/storefront/loyalty", publicMiddleware.SetRouteChain(handler.GetLoyaltyStatus, customerSession.Verify)).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetManyTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetManyTicket(ctx)
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
		Message: "list of tickets",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticketID := mux.Vars(r)["ticketID"]

	png, err := handler.TicketUseCase.GetTicketQR(ctx, ticketID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (handler HTTPHandler) GetLoyaltyStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetLoyaltyStatus(ctx)
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
		Message: "loyalty status",
		Data:    resp,
	})
}
