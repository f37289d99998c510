package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/tazkarti/tz-booking/config"
	customerapp_booking "github.com/tazkarti/tz-booking/internal/module/customerapp/booking"
	customerapp_event "github.com/tazkarti/tz-booking/internal/module/customerapp/event"
	customerapp_payment "github.com/tazkarti/tz-booking/internal/module/customerapp/payment"
	customerapp_ticket "github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
	organizerapp_booking "github.com/tazkarti/tz-booking/internal/module/organizerapp/booking"
	organizerapp_ticket "github.com/tazkarti/tz-booking/internal/module/organizerapp/ticket"
	"github.com/tazkarti/tz-booking/internal/pkg/clock"
	"github.com/tazkarti/tz-booking/internal/pkg/jwt"
	internalMiddleware "github.com/tazkarti/tz-booking/internal/pkg/middleware"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/migrations"
	"github.com/tazkarti/tz-booking/pkg/applogger"
	"github.com/tazkarti/tz-booking/pkg/gctasks"
	"github.com/tazkarti/tz-booking/pkg/kafka"
	"github.com/tazkarti/tz-booking/pkg/lock"
	"github.com/tazkarti/tz-booking/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/monitoring"
	"github.com/tazkarti/tz-booking/pkg/postgresql"
	"github.com/tazkarti/tz-booking/pkg/pubsub"
	"github.com/tazkarti/tz-booking/pkg/rabbitmq"
	"github.com/tazkarti/tz-booking/pkg/redis"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/server"
	"github.com/tazkarti/tz-booking/pkg/status"
	"github.com/tazkarti/tz-booking/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var (
	c            *config.Config
	CustomerApp  string
	OrganizerApp string
)

func init() {
	c = config.Get()
	OrganizerApp = fmt.Sprintf("%s/%s", c.Application.Name, "organizerapp")
	CustomerApp = fmt.Sprintf("%s/%s", c.Application.Name, "customerapp")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		logger,
		c.Application.Name,
		c.Application.Environment,
		c.Otel.Endpoint,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	systemClock := clock.NewSystem()

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	if c.Postgres.AutoMigrate {
		if err := migrations.Apply(ctx, psqldb); err != nil {
			logger.WithContext(ctx).WithError(err).Fatal("could not apply migrations")
		}
	}

	sqlxdb := sqlx.NewDb(psqldb, "postgres")

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	var cloudTask gctasks.Client
	if c.GCP.CloudTasks {
		cloudTask = gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.Location, c.GCP.ServiceAccount)
	}

	sessionStore := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleware.NewCustomerSessionMiddleware(jsonWebToken, sessionStore)
	organizerSessionMiddleware := internalMiddleware.NewOrganizerSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := psqldb.PingContext(r.Context()); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.RESTEnvelope{
				Status:  status.SERVICE_UNAVAILABLE,
				Message: "database is unreachable",
			})
			return
		}
		response.JSON(w, http.StatusOK, response.RESTEnvelope{
			Status:  status.OK,
			Message: "ok",
		})
	}).Methods(http.MethodGet)

	// customer's app
	customerappEventRepo := customerapp_event.NewEventRepository(logger, psqldb)
	customerappBookingRuleRepo := customerapp_event.NewBookingRuleRepository(logger, psqldb)
	customerappTicketRepo := customerapp_ticket.NewTicketStockRepository(logger, psqldb)
	customerappReservationRepo := customerapp_ticket.NewReservationRepository(logger, psqldb)
	customerappBookingRepo := customerapp_booking.NewBookingRepository(logger, psqldb)
	customerappHistoryRepo := customerapp_booking.NewHistoryRepository(logger, psqldb)
	midtransRepo := customerapp_payment.NewMidtransRepository(c.Midtrans.BaseURL, c.Midtrans.BasicAuthKey, c.Midtrans.ServerKey, logger, hc)
	stripeRepo := customerapp_payment.NewStripeRepository(c.Stripe.SecretKey, c.Stripe.WebhookSecret, "", logger, hc)
	paymentGateway := customerapp_payment.NewGateway(logger, midtransRepo, stripeRepo)
	customerappBookingUseCase := customerapp_booking.NewBookingUseCase(customerapp_booking.BookingUseCaseProperty{
		Logger:                logger,
		Timeout:               c.Application.Timeout,
		BaseURL:               c.Application.BaseURL,
		HoldDuration:          c.Booking.HoldDuration,
		MaxQuantity:           c.Booking.MaxQuantity,
		Currency:              c.Booking.Currency,
		ExpiryQueue:           c.GCP.ExpiryQueue,
		Clock:                 systemClock,
		EventRepository:       customerappEventRepo,
		BookingRuleRepository: customerappBookingRuleRepo,
		TicketStockRepository: customerappTicketRepo,
		ReservationRepository: customerappReservationRepo,
		BookingRepository:     customerappBookingRepo,
		HistoryRepository:     customerappHistoryRepo,
		Gateway:               paymentGateway,
		MidtransRepository:    midtransRepo,
		StripeRepository:      stripeRepo,
		Publisher:             publisher,
		PublishTimeout:        c.Kafka.PublishTimeout,
		CloudTask:             cloudTask,
	})
	customerapp_booking.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappBookingUseCase)

	// organizer's app
	logger.WithField("object", OrganizerApp).Debug("mounting organizer routes")
	organizerappBookingRepo := organizerapp_booking.NewBookingRepository(logger, sqlxdb)
	organizerappBookingUseCase := organizerapp_booking.NewBookingUseCase(organizerapp_booking.BookingUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		BookingRepository:      organizerappBookingRepo,
		CustomerBookingUseCase: customerappBookingUseCase,
	})
	organizerapp_booking.InitHTTPHandler(router, organizerSessionMiddleware, validate, organizerappBookingUseCase)

	organizerappTicketUseCase := organizerapp_ticket.NewTicketUseCase(organizerapp_ticket.TicketUseCaseProperty{
		Logger:                logger,
		Timeout:               c.Application.Timeout,
		Currency:              c.Booking.Currency,
		Clock:                 systemClock,
		EventRepository:       customerappEventRepo,
		TicketStockRepository: customerappTicketRepo,
	})
	organizerapp_ticket.InitHTTPHandler(router, organizerSessionMiddleware, validate, organizerappTicketUseCase)

	// background workers
	sweeper := customerapp_booking.NewExpirySweeper(customerapp_booking.ExpirySweeperProperty{
		Logger:         logger,
		BookingUseCase: customerappBookingUseCase,
		Locker:         lock.NewRedisLocker(rc),
		Interval:       c.Booking.SweepInterval,
		Batch:          c.Booking.SweepBatch,
	})
	go sweeper.Run(ctx)

	var paymentSource *rabbitmq.Consumer
	if c.RabbitMQ.Enabled {
		source, err := rabbitmq.NewConsumer(c.RabbitMQ.URL, c.RabbitMQ.Exchange, c.RabbitMQ.Queue, []string{
			customerapp_booking.RoutingKeyPaymentCompleted,
			customerapp_booking.RoutingKeyPaymentFailed,
		})
		if err != nil {
			logger.WithContext(ctx).WithError(err).Error("could not start payment consumer")
		} else {
			paymentSource = source
			paymentConsumer := customerapp_booking.NewPaymentConsumer(logger, paymentSource, customerappBookingUseCase)
			go func() {
				if err := paymentConsumer.Run(ctx); err != nil {
					logger.WithField("object", CustomerApp).WithError(err).Error("payment consumer stopped")
				}
			}()
		}
	}

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

	cancel()

	shutdownCtx := context.WithoutCancel(ctx)
	srv.Shutdown(shutdownCtx)
	if paymentSource != nil {
		paymentSource.Close()
	}
	if cloudTask != nil {
		cloudTask.Close()
	}
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(shutdownCtx)
}
