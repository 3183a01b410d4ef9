package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	internaljwt "github.com/joshcrispo/dissonant-pulse/internal/pkg/jwt"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/session"
	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/response"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type CustomerSession struct {
	jsonWebToken *internaljwt.JSONWebToken
	session      session.Session
}

type customerClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

func NewCustomerSessionMiddleware(jsonWebToken *internaljwt.JSONWebToken, sess session.Session) *CustomerSession {
	return &CustomerSession{
		jsonWebToken: jsonWebToken,
		session:      sess,
	}
}

// Verify authenticates the bearer token, resolves the customer's session and
// attaches the account to the request context.
func (m *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authorization := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || tokenString == "" {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "authorization bearer token is required",
			})

			return
		}

		claims := &customerClaims{}
		if err := m.jsonWebToken.Parse(tokenString, claims); err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		acc, err := m.session.Get(ctx, claims.SessionID)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(ctx, acc)))
	}
}
