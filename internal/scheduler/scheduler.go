// Package scheduler runs the periodic jobs: the daily reminder pass and the
// weekly chama summary.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/money"
	"github.com/kamaugm/chamabot/internal/reminder"
	"github.com/kamaugm/chamabot/internal/store"
)

// Start registers the jobs and starts the scheduler. The returned scheduler
// should be shut down on exit.
func Start(st *store.Store, transport reminder.TextSender) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Daily reminder check at 9 AM.
	if _, err := s.NewJob(
		gocron.CronJob("0 9 * * *", false),
		gocron.NewTask(func() { runReminderPass(st, transport) }),
	); err != nil {
		return nil, err
	}

	// Weekly summary, Sundays at 6 PM.
	if _, err := s.NewJob(
		gocron.CronJob("0 18 * * 0", false),
		gocron.NewTask(func() { runWeeklySummary(st, transport) }),
	); err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

func runReminderPass(st *store.Store, transport reminder.TextSender) {
	log.Info().Msg("running daily reminder check")

	members, err := st.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("reminder pass: list members failed")
		return
	}
	payments, err := st.ListPayments()
	if err != nil {
		log.Error().Err(err).Msg("reminder pass: list payments failed")
		return
	}

	due := reminder.Due(members, payments, time.Now())
	if len(due) == 0 {
		return
	}
	log.Info().Int("count", len(due)).Msg("sending automatic reminders")
	sent := reminder.SendBatch(context.Background(), due, members, transport, st)
	log.Info().Int("sent", sent).Int("due", len(due)).Msg("reminder pass finished")
}

func runWeeklySummary(st *store.Store, transport reminder.TextSender) {
	log.Info().Msg("sending weekly summary")

	members, err := st.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("weekly summary: list members failed")
		return
	}
	payments, err := st.ListPayments()
	if err != nil {
		log.Error().Err(err).Msg("weekly summary: list payments failed")
		return
	}

	var total float64
	for _, m := range members {
		total += m.TotalContributed
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	thisWeek := 0
	for _, p := range payments {
		if p.Date.After(weekAgo) {
			thisWeek++
		}
	}

	summary := fmt.Sprintf(
		"📊 Weekly Chama Summary\n\n💰 Total Contributions: KSh %s\n📈 This Week's Payments: %d\n👥 Active Members: %d\n\nHave a great week ahead! 🌟",
		money.Format(total), thisWeek, len(members))

	for _, m := range members {
		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
		err := transport.SendText(ctx, m.Phone, summary)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("member", m.Name).Msg("failed to send weekly summary")
		}
	}
}
