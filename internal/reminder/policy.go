// Package reminder computes which members are due for contribution
// reminders and delivers the resulting batch.
package reminder

import (
	"fmt"
	"time"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/money"
)

// Day-count buckets for the automatic reminder pass. A member can also match
// the independent weekly negative-balance rule in the same pass.
const (
	preDueFrom  = 25
	overdueFrom = 30
	overdueTo   = 35 // exclusive
	urgentFrom  = 45
)

// Due is a pure function over the current members, payment history and clock.
// It returns pending reminders; nothing is sent or persisted here.
func Due(members []models.Member, payments []models.Payment, now time.Time) []models.Reminder {
	var due []models.Reminder

	for _, m := range members {
		days, hasPayment := daysSinceLastPayment(m.ID, payments, now)

		if hasPayment {
			switch {
			case days >= preDueFrom && days < overdueFrom:
				due = append(due, newAuto(m, now, models.ReminderPaymentDue, fmt.Sprintf(
					"Hi %s! 👋 Your monthly contribution of KSh 1,500 is due in 5 days. Please make your payment to avoid late fees. Thank you! 💰",
					m.Name)))
			case days >= overdueFrom && days < overdueTo:
				due = append(due, newAuto(m, now, models.ReminderPaymentOverdue, fmt.Sprintf(
					"Hello %s, your monthly contribution is now overdue. Please make your payment of KSh 1,500 as soon as possible. Contact us if you need assistance. 🔔",
					m.Name)))
			case days >= urgentFrom:
				due = append(due, newAuto(m, now, models.ReminderPaymentOverdue, fmt.Sprintf(
					"URGENT: %s, your payment is seriously overdue (%d days). Please contact the treasurer immediately to discuss your account. Your current balance is KSh %s. ⚠️",
					m.Name, days, money.Format(m.CurrentBalance))))
			}
		}

		// Weekly nudge for members in the red, on each 7-day anniversary of
		// their last payment. Requires a payment history for the day count
		// to be meaningful.
		if m.CurrentBalance < 0 && hasPayment && days%7 == 0 {
			r := newAuto(m, now, models.ReminderPaymentOverdue, fmt.Sprintf(
				"Weekly reminder: %s, your account balance is KSh %s. Please make a payment to bring your account up to date. 📊",
				m.Name, money.Format(m.CurrentBalance)))
			r.ID = fmt.Sprintf("weekly_%d_%s", now.Unix(), m.ID)
			due = append(due, r)
		}
	}

	return due
}

// MeetingReminders builds a meeting_reminder for every member, scheduled one
// day ahead of the meeting.
func MeetingReminders(members []models.Member, meetingAt time.Time, details string, now time.Time) []models.Reminder {
	var res []models.Reminder
	for _, m := range members {
		res = append(res, models.Reminder{
			ID:       fmt.Sprintf("meeting_%d_%s", now.Unix(), m.ID),
			MemberID: m.ID,
			Message: fmt.Sprintf(
				"📅 Meeting Reminder: %s, we have a chama meeting scheduled for %s at %s. %s Please confirm your attendance. 🤝",
				m.Name, meetingAt.Format("02 Jan 2006"), meetingAt.Format("15:04"), details),
			Type:          models.ReminderMeetingReminder,
			Status:        models.ReminderPending,
			ScheduledDate: meetingAt.AddDate(0, 0, -1),
			CreatedDate:   now,
		})
	}
	return res
}

func newAuto(m models.Member, now time.Time, typ models.ReminderType, msg string) models.Reminder {
	return models.Reminder{
		ID:            fmt.Sprintf("auto_%d_%s", now.Unix(), m.ID),
		MemberID:      m.ID,
		Message:       msg,
		Type:          typ,
		Status:        models.ReminderPending,
		ScheduledDate: now,
		CreatedDate:   now,
	}
}

func daysSinceLastPayment(memberID string, payments []models.Payment, now time.Time) (int, bool) {
	var last time.Time
	found := false
	for _, p := range payments {
		if p.MemberID != memberID {
			continue
		}
		if !found || p.Date.After(last) {
			last = p.Date
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return int(now.Sub(last).Hours() / 24), true
}
