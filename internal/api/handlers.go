package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/whatsapp"
)

func (a *API) handleVerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := whatsapp.VerifyWebhook(
		q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"),
		a.config.WebhookVerifyToken)
	if !ok {
		log.Warn().Msg("webhook verification failed")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	log.Info().Msg("webhook verified")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	// A malformed payload must never take the process down; reply 500 and
	// move on.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("webhook handler panicked")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	in, ok := whatsapp.ParseWebhook(body)
	if !ok {
		// Status updates and other non-message events are acknowledged too.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}

	log.Info().Str("from", in.From).Str("type", in.Type).Msg("inbound message")

	var responses []models.Message
	if in.Type == "interactive" {
		responses = a.engine.HandleQuickReply(in.From, in.Text)
	} else {
		responses = a.engine.HandleMessage(in.From, in.Text)
	}

	a.deliver(in.From, responses)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// deliver sends the engine's replies back over WhatsApp. Send failures are
// logged and do not fail the webhook response; Meta retries otherwise.
func (a *API) deliver(to string, responses []models.Message) {
	ctx, cancel := sendContext()
	defer cancel()

	for _, resp := range responses {
		if err := a.transport.SendText(ctx, to, resp.Text); err != nil {
			log.Error().Err(err).Str("to", to).Msg("failed to send reply")
			continue
		}
		if resp.Type == models.MessageQuickReply && len(resp.QuickReplies) > 0 {
			buttons := make([]whatsapp.Button, 0, len(resp.QuickReplies))
			for _, qr := range resp.QuickReplies {
				buttons = append(buttons, whatsapp.Button{ID: qr.Payload, Title: qr.Text})
			}
			if err := a.transport.SendButtons(ctx, to, "Choose an option:", buttons); err != nil {
				log.Error().Err(err).Str("to", to).Msg("failed to send buttons")
			}
		}
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := a.store.ListMembers()
	if err != nil {
		http.Error(w, "failed to list members", http.StatusInternalServerError)
		return
	}
	writeJSON(w, members)
}

func (a *API) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := a.store.ListPayments()
	if err != nil {
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payments)
}

func (a *API) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := a.store.ListReminders()
	if err != nil {
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reminders)
}

func (a *API) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := sendContext()
	defer cancel()
	if err := a.transport.SendText(ctx, req.Phone, req.Message); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Message sent successfully"})
}

func (a *API) handleExportMembers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)
	if err := a.exporter.WriteMembersCSV(w); err != nil {
		log.Error().Err(err).Msg("members export failed")
	}
}

func (a *API) handleExportPayments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.csv"`)
	if err := a.exporter.WritePaymentsCSV(w); err != nil {
		log.Error().Err(err).Msg("payments export failed")
	}
}

// sendContext bounds outbound Graph API calls made from request handlers.
func sendContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
