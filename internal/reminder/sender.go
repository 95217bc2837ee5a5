package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
)

// TextSender delivers one text message.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// Recorder persists reminders and their status transitions.
type Recorder interface {
	AddReminder(r *models.Reminder) error
	MarkReminderSent(id string) error
}

const sendTimeout = 12 * time.Second

// SendBatch persists and delivers a batch of pending reminders sequentially.
// A failed send leaves that reminder pending and moves on; there is no retry
// within a pass. Returns how many were sent.
func SendBatch(ctx context.Context, reminders []models.Reminder, members []models.Member, transport TextSender, rec Recorder) int {
	byID := make(map[string]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	sent := 0
	for i := range reminders {
		r := &reminders[i]
		m, ok := byID[r.MemberID]
		if !ok {
			log.Warn().Str("reminder", r.ID).Str("member", r.MemberID).Msg("reminder for unknown member, skipping")
			continue
		}
		if rec != nil {
			if err := rec.AddReminder(r); err != nil {
				log.Error().Err(err).Str("reminder", r.ID).Msg("failed to persist reminder")
				continue
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := transport.SendText(sendCtx, m.Phone, r.Message)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("member", m.Name).Msg("failed to send reminder")
			continue
		}

		r.Status = models.ReminderSent
		if rec != nil {
			if err := rec.MarkReminderSent(r.ID); err != nil {
				log.Error().Err(err).Str("reminder", r.ID).Msg("failed to mark reminder sent")
			}
		}
		sent++
		log.Info().Str("member", m.Name).Str("phone", m.Phone).Msg("reminder sent")
	}
	return sent
}
