package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/joshcrispo/dissonant-pulse/config"
	"github.com/joshcrispo/dissonant-pulse/internal/module/scannerapp/redemption"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/event"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/fulfillment"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/stripe"
	storefront_ticket "github.com/joshcrispo/dissonant-pulse/internal/module/storefront/ticket"
	"github.com/joshcrispo/dissonant-pulse/internal/module/storefront/user"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/clock"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/jwt"
	internalMiddleware "github.com/joshcrispo/dissonant-pulse/internal/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/internal/pkg/session"
	"github.com/joshcrispo/dissonant-pulse/pkg/applogger"
	"github.com/joshcrispo/dissonant-pulse/pkg/gctasks"
	"github.com/joshcrispo/dissonant-pulse/pkg/kafka"
	"github.com/joshcrispo/dissonant-pulse/pkg/middleware"
	"github.com/joshcrispo/dissonant-pulse/pkg/mongodb"
	"github.com/joshcrispo/dissonant-pulse/pkg/monitoring"
	"github.com/joshcrispo/dissonant-pulse/pkg/pubsub"
	"github.com/joshcrispo/dissonant-pulse/pkg/redis"
	"github.com/joshcrispo/dissonant-pulse/pkg/server"
	"github.com/joshcrispo/dissonant-pulse/pkg/validator"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.Monitoring.OTLPEndpoint,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	db := mongodb.GetDatabase()

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.LocationID, c.GCP.ServiceAccount)

	systemClock := clock.NewSystem()

	sess := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleware.NewCustomerSessionMiddleware(jsonWebToken, sess)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// storefront
	userRepo := user.NewUserRepository(logger, db)
	eventRepo := event.NewEventRepository(logger, db)
	stripeRepo := stripe.NewStripeRepository(c.Stripe.BaseURL, c.Stripe.SecretKey, logger, hc)
	recordRepo := fulfillment.NewFulfillmentRecordRepository(logger, db)
	if err := recordRepo.EnsureIndexes(ctx); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}
	tokenGuard := fulfillment.NewRedisTokenGuard(logger, rc, 1*time.Minute)
	issuer := fulfillment.NewTicketIssuer(fulfillment.NewTicketIdentity(), systemClock)
	fulfillmentUseCase := fulfillment.NewFulfillmentUseCase(fulfillment.FulfillmentUseCaseProperty{
		Logger:             logger,
		Timeout:            c.Application.Timeout,
		BaseURL:            c.Application.BaseURL,
		MaxPersistAttempts: c.Fulfillment.MaxPersistAttempts,
		RetryQueue:         c.Fulfillment.RetryQueue,
		RetryDelay:         c.Fulfillment.RetryDelay,
		EventRepository:    eventRepo,
		UserRepository:     userRepo,
		RecordRepository:   recordRepo,
		Issuer:             issuer,
		TokenGuard:         tokenGuard,
		Publisher:          publisher,
		CloudTask:          cloudTask,
	})
	fulfillment.InitHTTPHandler(router, fulfillment.HTTPHandlerProperty{
		Validate:           validate,
		FulfillmentUseCase: fulfillmentUseCase,
		StripeRepository:   stripeRepo,
		WebhookSecret:      c.Stripe.WebhookSecret,
		SignatureTolerance: c.Stripe.SignatureTolerance,
	})

	ticketUseCase := storefront_ticket.NewTicketUseCase(storefront_ticket.TicketUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		Clock:           systemClock,
		UserRepository:  userRepo,
		EventRepository: eventRepo,
	})
	storefront_ticket.InitHTTPHandler(router, customerSessionMiddleware, ticketUseCase)

	// scanner's app
	redemptionRepo := redemption.NewTicketRepository(logger, db)
	redemptionUseCase := redemption.NewRedemptionUseCase(redemption.RedemptionUseCaseProperty{
		Logger:           logger,
		Timeout:          c.Application.Timeout,
		Clock:            systemClock,
		TicketRepository: redemptionRepo,
	})
	redemption.InitHTTPHandler(router, validate, redemptionUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	cloudTask.Close()
	db.Client().Disconnect(ctx)
	rc.Close()
	mon.Stop(ctx)
}
