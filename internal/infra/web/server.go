package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"visitgate/internal/infra/api"
	"visitgate/internal/usecase"
)

// Server is the tenant-facing HTTP API. Tenant routes ride behind JWT auth;
// the /p/{slug} surface is the public visitor self-registration flow.
type Server struct {
	companyUC *usecase.CompanyUseCase
	subUC     *usecase.SubscriptionUseCase
	roomUC    *usecase.RoomUseCase
	bookingUC *usecase.BookingUseCase
	visitorUC *usecase.VisitorUseCase
	otpUC     *usecase.OtpUseCase

	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zerolog.Logger
}

func NewServer(
	companyUC *usecase.CompanyUseCase,
	subUC *usecase.SubscriptionUseCase,
	roomUC *usecase.RoomUseCase,
	bookingUC *usecase.BookingUseCase,
	visitorUC *usecase.VisitorUseCase,
	otpUC *usecase.OtpUseCase,
	jwtSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		companyUC: companyUC,
		subUC:     subUC,
		roomUC:    roomUC,
		bookingUC: bookingUC,
		visitorUC: visitorUC,
		otpUC:     otpUC,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
		log:       logger,
	}
}

// Router builds the full route tree with the shared middleware chain.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(api.TraceID())
	r.Use(api.RequestLog(s.log))
	r.Use(api.Recover(s.log))
	r.Use(api.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/companies", s.handleRegisterCompany)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/entitlements", s.handleEntitlements)

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", s.handleListRooms)
				r.Post("/", s.handleCreateRoom)
				r.Post("/sync", s.handleSyncRooms)
				r.Patch("/{id}", s.handleUpdateRoom)
				r.Delete("/{id}", s.handleDeleteRoom)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", s.handleListBookings)
				r.Post("/", s.handleCreateBooking)
				r.Patch("/{id}", s.handleRescheduleBooking)
				r.Delete("/{id}", s.handleCancelBooking)
			})

			r.Route("/visitors", func(r chi.Router) {
				r.Get("/", s.handleListVisitors)
				r.Post("/", s.handleCheckIn)
				r.Post("/{code}/checkout", s.handleCheckOut)
			})
		})
	})

	// Public self-registration, scoped by tenant slug.
	r.Route("/p/{slug}", func(r chi.Router) {
		r.Post("/otp/send", s.handleOtpSend)
		r.Post("/otp/verify", s.handleOtpVerify)
		r.Post("/register", s.handlePublicRegister)
	})

	return r
}
