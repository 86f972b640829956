// Package httpapi wires the HTTP surface of the accounting service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/comptaflow/comptaflow/internal/chart"
	"github.com/comptaflow/comptaflow/internal/service/journal"
	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	store    Store
	chartSvc chart.Service
	journal  journal.Service
	reports  report.Service
	recon    recon.Service
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger, opts recon.Options) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	chartSvc := chart.New(store, store)
	s := &Server{
		store:    store,
		chartSvc: chartSvc,
		journal:  journal.New(store, store, chartSvc),
		reports:  report.New(store),
		recon:    recon.New(store, store, opts),
		log:      logger,
		rt:       r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Companies and chart of accounts
	s.rt.Post("/v1/companies", s.postCompany)
	s.rt.Post("/v1/companies/{id}/init", s.initCompany)
	s.rt.With(s.requireCompany()).Get("/v1/accounts", s.listAccounts)

	// Events -> journal entries
	s.rt.With(s.validatePostEvent()).Post("/v1/events", s.postEvent)
	s.rt.Post("/v1/events/reverse", s.reverseEvent)

	// Reports
	s.rt.With(s.requireCompany()).Get("/v1/trial-balance", s.trialBalance)
	s.rt.With(s.requireCompany()).Get("/v1/tax-summary", s.taxSummary)
	s.rt.With(s.requireCompany()).Get("/v1/entries", s.listEntries)

	// Source records consumed by reconciliation and tax summary
	s.rt.Post("/v1/invoices", s.postInvoice)
	s.rt.Delete("/v1/invoices/{id}", s.deleteInvoice)
	s.rt.Post("/v1/expenses", s.postExpense)
	s.rt.Post("/v1/supplier-invoices", s.postSupplierInvoice)

	// Bank statements and reconciliation
	s.rt.With(s.validatePostStatement()).Post("/v1/statements", s.postStatement)
	s.rt.Get("/v1/statements/{id}", s.getStatement)
	s.rt.Delete("/v1/statements/{id}", s.deleteStatement)
	s.rt.Get("/v1/statements/{id}/summary", s.statementSummary)
	s.rt.Post("/v1/statements/{id}/automatch", s.autoMatch)
	s.rt.Get("/v1/statements/{id}/lines/{lineID}/matches", s.lineMatches)
	s.rt.Post("/v1/lines/{id}/match", s.matchLine)
	s.rt.Post("/v1/lines/{id}/unmatch", s.unmatchLine)
	s.rt.Post("/v1/lines/{id}/ignore", s.ignoreLine)
	s.rt.Post("/v1/lines/ignore", s.ignoreLines)

	// Compliance exports
	s.rt.With(s.requireCompany()).Get("/v1/exports/fec", s.exportFEC)
	s.rt.With(s.requireCompany()).Get("/v1/exports/saft", s.exportSAFT)
	s.rt.Get("/v1/exports/facturx/{invoiceID}", s.exportFacturX)

	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Get("/metrics", metricsHandler().ServeHTTP)
}
