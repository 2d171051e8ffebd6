// Package v1 wires the HTTP surface of the back office.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tinoosan/ermay/internal/ledger"
	"github.com/tinoosan/ermay/internal/service/party"
	"github.com/tinoosan/ermay/internal/service/record"
	"github.com/tinoosan/ermay/internal/service/statement"
)

// Options configures optional parts of the server.
type Options struct {
	Auth               AuthConfig
	CORSAllowedOrigins []string
	// Idempotency overrides where record idempotency keys live. Nil uses the store.
	Idempotency record.IdempotencyStore
}

// Server wires handlers and middleware using Chi.
type Server struct {
	parties    party.Service
	records    record.Service
	statements statement.Service
	ready      []ReadyChecker
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(store Store, logger *slog.Logger, opts Options) *Server {
	idem := opts.Idempotency
	if idem == nil {
		idem = store
	}
	s := &Server{
		parties:    party.New(store, store),
		records:    record.New(store, store, idem),
		statements: statement.New(store, logger),
		log:        logger,
		rt:         chi.NewRouter(),
	}
	for _, dep := range []any{store, opts.Idempotency} {
		if rc, ok := dep.(ReadyChecker); ok {
			s.ready = append(s.ready, rc)
		}
	}

	s.rt.Use(chimw.RequestID)
	s.rt.Use(requestLogger(logger))
	s.rt.Use(recoverer(logger))
	s.rt.Use(metricsMiddleware)
	if len(opts.CORSAllowedOrigins) > 0 {
		s.rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", idempotencyHeader},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	s.routes(opts.Auth)
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints. Health, metrics and the
// dictionary are open; everything else is owner-scoped.
func (s *Server) routes(auth AuthConfig) {
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())

	s.rt.Route("/v1", func(r chi.Router) {
		r.Get("/dictionary/currencies", s.getCurrencies)
		r.Get("/dictionary/payment-methods", s.getPaymentMethods)

		r.Group(func(r chi.Router) {
			if mw := s.authJWT(auth); mw != nil {
				r.Use(mw)
			}
			r.Use(ownerScope)

			r.Route("/customers", s.partyRoutes(ledger.PartyCustomer))
			r.Route("/suppliers", s.partyRoutes(ledger.PartySupplier))
			r.Route("/sales", s.debitRoutes(ledger.TypeSale))
			r.Route("/purchases", s.debitRoutes(ledger.TypePurchase))
			r.Route("/payments", s.creditRoutes(ledger.TypePayment))
			r.Route("/supplier-payments", s.creditRoutes(ledger.TypePaymentToSupplier))
			r.Get("/dashboard", s.getDashboard)
		})
	})
}
