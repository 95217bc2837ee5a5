package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/money"
)

const (
	recentPaymentsLimit  = 10
	recentRemindersLimit = 5
)

func (e *Engine) viewMembers() models.Message {
	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("view members: list failed")
	}
	var b strings.Builder
	for _, m := range members {
		fmt.Fprintf(&b, "👤 *%s*\n📱 %s\n💰 Contributed: KSh %s\n💳 Balance: KSh %s\n📅 Joined: %s\n\n",
			m.Name, m.Phone, money.Format(m.TotalContributed), money.Format(m.CurrentBalance),
			m.JoinDate.Format("02 Jan 2006"))
	}
	return e.quickReplyMsg(fmt.Sprintf("👥 *All Members (%d)*\n\n%s", len(members),
		strings.TrimRight(b.String(), "\n")),
		models.QuickReply{Text: "➕ Add Member", Payload: payloadAddMember},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) viewPayments() models.Message {
	payments, err := e.store.ListPayments()
	if err != nil {
		log.Error().Err(err).Msg("view payments: list failed")
	}
	names := e.memberNames()

	shown := payments
	if len(shown) > recentPaymentsLimit {
		shown = shown[:recentPaymentsLimit]
	}
	var b strings.Builder
	for _, p := range shown {
		fmt.Fprintf(&b, "💰 *KSh %s*\n👤 %s\n📱 %s\n🔗 %s\n📅 %s\n✅ %s\n\n",
			money.Format(p.Amount), names[p.MemberID], p.Method, p.Reference,
			p.Date.Format("02 Jan 2006"), p.Status)
	}
	return e.quickReplyMsg(fmt.Sprintf("💰 *Recent Payments (%d)*\n\n%s", len(payments),
		strings.TrimRight(b.String(), "\n")),
		models.QuickReply{Text: "💰 Record Payment", Payload: payloadRecordPayment},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) viewReminders() models.Message {
	reminders, err := e.store.ListReminders()
	if err != nil {
		log.Error().Err(err).Msg("view reminders: list failed")
	}
	names := e.memberNames()

	shown := reminders
	if len(shown) > recentRemindersLimit {
		shown = shown[:recentRemindersLimit]
	}
	var b strings.Builder
	for _, r := range shown {
		fmt.Fprintf(&b, "🔔 *To:* %s\n💬 %s\n📅 %s\n📊 Status: %s\n\n",
			names[r.MemberID], r.Message, r.ScheduledDate.Format("02 Jan 2006"), r.Status)
	}
	return e.quickReplyMsg(fmt.Sprintf("🔔 *All Reminders (%d)*\n\n%s", len(reminders),
		strings.TrimRight(b.String(), "\n")),
		models.QuickReply{Text: "🔔 Send Reminder", Payload: payloadSendReminder},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) memberSummary() models.Message {
	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("member summary: list failed")
	}
	var b strings.Builder
	for _, m := range members {
		payments, err := e.store.PaymentsByMember(m.ID)
		if err != nil {
			log.Error().Err(err).Str("member", m.ID).Msg("member summary: payments failed")
			continue
		}
		last := "Never"
		if len(payments) > 0 {
			// PaymentsByMember is most-recent-first.
			last = payments[0].Date.Format("02 Jan 2006")
		}
		fmt.Fprintf(&b, "👤 *%s*\n💰 Total: KSh %s\n💳 Balance: KSh %s\n📊 Payments: %d\n📅 Last Payment: %s\n\n",
			m.Name, money.Format(m.TotalContributed), money.Format(m.CurrentBalance), len(payments), last)
	}
	return e.quickReplyMsg("📊 *Member Summary Report*\n\n"+strings.TrimRight(b.String(), "\n"),
		models.QuickReply{Text: "💰 Payment Report", Payload: payloadPaymentReport},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) paymentReport() models.Message {
	payments, err := e.store.ListPayments()
	if err != nil {
		log.Error().Err(err).Msg("payment report: list failed")
	}

	var total float64
	completed := 0
	monthly := make(map[string]float64)
	for _, p := range payments {
		total += p.Amount
		if p.Status == models.PaymentCompleted {
			completed++
		}
		monthly[p.Date.Format("Jan 2006")] += p.Amount
	}
	var average float64
	if completed > 0 {
		average = total / float64(completed)
	}

	// Month buckets in chronological order.
	months := make([]string, 0, len(monthly))
	for k := range monthly {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool {
		ti, _ := timeParseMonth(months[i])
		tj, _ := timeParseMonth(months[j])
		return ti.Before(tj)
	})

	var b strings.Builder
	for _, month := range months {
		fmt.Fprintf(&b, "📅 %s: KSh %s\n", month, money.Format(monthly[month]))
	}

	return e.quickReplyMsg(fmt.Sprintf(
		"💰 *Payment Report*\n\n📊 *Summary:*\n• Total Payments: %d\n• Total Amount: KSh %s\n• Average Payment: KSh %s\n• Completed: %d\n\n📈 *Monthly Breakdown:*\n%s",
		len(payments), money.Format(total), money.Format(average), completed,
		strings.TrimRight(b.String(), "\n")),
		models.QuickReply{Text: "📊 Member Summary", Payload: payloadMemberSummary},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func timeParseMonth(s string) (time.Time, error) {
	return time.Parse("Jan 2006", s)
}

func (e *Engine) memberNames() map[string]string {
	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("member name lookup failed")
		return nil
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}
