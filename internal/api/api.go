// Package api exposes the WhatsApp webhook and the dashboard JSON API.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/bot"
	"github.com/kamaugm/chamabot/internal/config"
	"github.com/kamaugm/chamabot/internal/export"
	"github.com/kamaugm/chamabot/internal/store"
	"github.com/kamaugm/chamabot/internal/whatsapp"
)

// Transport sends outbound WhatsApp messages.
type Transport interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []whatsapp.Button) error
}

type API struct {
	router    *mux.Router
	config    *config.Config
	store     *store.Store
	engine    *bot.Engine
	transport Transport
	exporter  *export.Exporter
}

func New(cfg *config.Config, st *store.Store, engine *bot.Engine, transport Transport, exporter *export.Exporter) *API {
	a := &API{
		router:    mux.NewRouter(),
		config:    cfg,
		store:     st,
		engine:    engine,
		transport: transport,
		exporter:  exporter,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	// WhatsApp webhook
	a.router.HandleFunc("/webhook", a.handleVerifyWebhook).Methods("GET")
	a.router.HandleFunc("/webhook", a.handleWebhook).Methods("POST")

	a.router.HandleFunc("/health", a.handleHealth).Methods("GET")

	// Read-only dashboard API
	a.router.HandleFunc("/api/members", a.handleListMembers).Methods("GET")
	a.router.HandleFunc("/api/payments", a.handleListPayments).Methods("GET")
	a.router.HandleFunc("/api/reminders", a.handleListReminders).Methods("GET")

	a.router.HandleFunc("/api/test-message", a.handleTestMessage).Methods("POST")

	a.router.HandleFunc("/api/export/members.csv", a.handleExportMembers).Methods("GET")
	a.router.HandleFunc("/api/export/payments.csv", a.handleExportPayments).Methods("GET")
}

func (a *API) Start() error {
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(a.router)

	log.Info().Str("bind", a.config.WebBind).Msg("API server listening")
	return http.ListenAndServe(a.config.WebBind, handler)
}
