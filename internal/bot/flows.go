package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/money"
	"github.com/kamaugm/chamabot/internal/store"
)

var (
	// Kenyan mobile numbers only: +254 followed by nine digits.
	phoneRx = regexp.MustCompile(`^\+254[0-9]{9}$`)
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)
	// Currency noise ("KSh 1,500") is stripped before parsing; sign and
	// decimal point survive so negative amounts stay negative.
	amountNoiseRx = regexp.MustCompile(`[^0-9.\-]`)
)

const maxPaymentAmount = 1_000_000

// ---------- add_member ------------------------------------------------------

func (e *Engine) addMemberFlow(sess *session, input string) []models.Message {
	input = strings.TrimSpace(input)

	switch sess.awaiting {
	case "":
		sess.addMember = &addMemberDraft{}
		sess.awaiting = awaitName
		return e.wrap(e.textMsg("Let's add a new member! 👥\n\nPlease enter the member's full name:"))

	case awaitName:
		if len(input) < 2 {
			return e.wrap(e.textMsg("❌ That name looks too short. Please enter the member's full name:"))
		}
		sess.addMember.name = input
		sess.awaiting = awaitPhone
		return e.wrap(e.textMsg(fmt.Sprintf(
			"Great! Now please enter %s's phone number (e.g., +254712345678):", input)))

	case awaitPhone:
		if !phoneRx.MatchString(input) {
			return e.wrap(e.textMsg("❌ That doesn't look like a valid phone number. Please use the format +254712345678:"))
		}
		if existing, err := e.store.MemberByPhone(input); err == nil {
			return e.wrap(e.textMsg(fmt.Sprintf(
				"❌ That phone number already belongs to %s. Please enter a different number:", existing.Name)))
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Msg("phone lookup failed")
			return e.wrap(e.textMsg("❌ Something went wrong checking that number. Please try again:"))
		}
		sess.addMember.phone = input
		sess.awaiting = awaitEmail
		return e.wrap(e.textMsg("Perfect! Now please enter their email address:"))

	case awaitEmail:
		if !emailRx.MatchString(input) {
			return e.wrap(e.textMsg("❌ That doesn't look like a valid email address. Please try again (e.g., jane@example.com):"))
		}
		sess.addMember.email = input
		sess.awaiting = awaitConfirm
		d := sess.addMember
		return e.wrap(e.quickReplyMsg(fmt.Sprintf(
			"Please confirm the new member's details:\n\n👤 *%s*\n📱 %s\n📧 %s",
			d.name, d.phone, d.email),
			models.QuickReply{Text: "✅ Confirm", Payload: payloadConfirmAdd},
			models.QuickReply{Text: "❌ Cancel", Payload: payloadCancelAdd}))

	case awaitConfirm:
		switch strings.ToLower(input) {
		case payloadConfirmAdd:
			return e.finishAddMember(sess)
		case payloadCancelAdd:
			sess.reset()
			return e.wrap(e.quickReplyMsg("Okay, I've discarded that member. Nothing was saved.",
				models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
		default:
			d := sess.addMember
			return e.wrap(e.quickReplyMsg(fmt.Sprintf(
				"Please use the buttons to confirm or cancel:\n\n👤 *%s*\n📱 %s\n📧 %s",
				d.name, d.phone, d.email),
				models.QuickReply{Text: "✅ Confirm", Payload: payloadConfirmAdd},
				models.QuickReply{Text: "❌ Cancel", Payload: payloadCancelAdd}))
		}
	}

	sess.reset()
	return e.wrap(e.mainMenu())
}

func (e *Engine) finishAddMember(sess *session) []models.Message {
	d := sess.addMember
	m := &models.Member{
		ID:       uuid.NewString(),
		Name:     d.name,
		Phone:    d.phone,
		Email:    d.email,
		JoinDate: e.now(),
	}
	if err := e.store.AddMember(m); err != nil {
		log.Error().Err(err).Msg("failed to add member")
		sess.reset()
		return e.wrap(e.quickReplyMsg("❌ Sorry, I couldn't save that member. Please try again.",
			models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
	}
	sess.reset()
	return e.wrap(e.quickReplyMsg(fmt.Sprintf(
		"✅ Member added successfully!\n\n👤 *%s*\n📱 %s\n📧 %s\n📅 Joined: %s\n\nWhat would you like to do next?",
		m.Name, m.Phone, m.Email, m.JoinDate.Format("02 Jan 2006")),
		models.QuickReply{Text: "👥 View Members", Payload: payloadViewMembers},
		models.QuickReply{Text: "💰 Record Payment", Payload: payloadRecordPayment},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
}

// ---------- record_payment --------------------------------------------------

func (e *Engine) recordPaymentFlow(sess *session, input string) []models.Message {
	input = strings.TrimSpace(input)

	switch sess.awaiting {
	case "":
		members, err := e.store.ListMembers()
		if err != nil || len(members) == 0 {
			sess.reset()
			return e.wrap(e.quickReplyMsg("There are no members yet. Add one first!",
				models.QuickReply{Text: "➕ Add Member", Payload: payloadAddMember},
				models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
		}
		sess.payment = &paymentDraft{}
		sess.awaiting = awaitMember
		var b strings.Builder
		for i, m := range members {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, m.Name, m.Phone)
		}
		return e.wrap(e.textMsg("💰 Record a new payment\n\nSelect a member by typing their number:\n\n" +
			strings.TrimRight(b.String(), "\n")))

	case awaitMember:
		members, err := e.store.ListMembers()
		if err != nil {
			return e.wrap(e.textMsg("❌ Something went wrong loading the member list. Please try again:"))
		}
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(members) {
			return e.wrap(e.textMsg("❌ Invalid selection. Please enter a valid member number:"))
		}
		sess.payment.member = members[idx-1]
		sess.awaiting = awaitAmount
		return e.wrap(e.textMsg(fmt.Sprintf(
			"Selected: *%s*\n\nPlease enter the payment amount (KSh):", sess.payment.member.Name)))

	case awaitAmount:
		amount, ok := parseAmount(input)
		if !ok {
			return e.wrap(e.textMsg(fmt.Sprintf(
				"❌ Please enter a valid amount between KSh 1 and KSh %s:", money.Format(maxPaymentAmount))))
		}
		sess.payment.amount = amount
		sess.awaiting = awaitMethod
		return e.wrap(e.quickReplyMsg(fmt.Sprintf(
			"Amount: KSh %s\n\nSelect payment method:", money.Format(amount)),
			models.QuickReply{Text: "📱 M-Pesa", Payload: models.MethodMpesa},
			models.QuickReply{Text: "🏦 Bank Transfer", Payload: models.MethodBankTransfer},
			models.QuickReply{Text: "💵 Cash", Payload: models.MethodCash}))

	case awaitMethod:
		if input == "" {
			return e.wrap(e.textMsg("❌ Please choose a payment method:"))
		}
		sess.payment.method = input
		sess.awaiting = awaitReference
		return e.wrap(e.textMsg(fmt.Sprintf(
			"Payment method: %s\n\nPlease enter the transaction reference number:", input)))

	case awaitReference:
		if len(input) < 3 {
			return e.wrap(e.textMsg("❌ That reference looks too short. Please enter the transaction reference (at least 3 characters):"))
		}
		return e.finishRecordPayment(sess, input)
	}

	sess.reset()
	return e.wrap(e.mainMenu())
}

func (e *Engine) finishRecordPayment(sess *session, reference string) []models.Message {
	d := sess.payment
	p := &models.Payment{
		ID:        uuid.NewString(),
		MemberID:  d.member.ID,
		Amount:    d.amount,
		Date:      e.now(),
		Status:    models.PaymentCompleted,
		Method:    d.method,
		Reference: reference,
	}
	if err := e.store.AddPayment(p); err != nil {
		log.Error().Err(err).Msg("failed to record payment")
		sess.reset()
		return e.wrap(e.quickReplyMsg("❌ Sorry, I couldn't record that payment. Please try again.",
			models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
	}
	sess.reset()
	return e.wrap(e.quickReplyMsg(fmt.Sprintf(
		"✅ Payment recorded successfully!\n\n💰 *Payment Details:*\n👤 Member: %s\n💵 Amount: KSh %s\n📱 Method: %s\n🔗 Reference: %s\n📅 Date: %s\n\nWhat's next?",
		d.member.Name, money.Format(p.Amount), p.Method, p.Reference, p.Date.Format("02 Jan 2006")),
		models.QuickReply{Text: "💰 Record Another", Payload: payloadRecordPayment},
		models.QuickReply{Text: "📊 View Payments", Payload: payloadViewPayments},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
}

// parseAmount strips currency noise and validates the (0, 1,000,000] range.
func parseAmount(input string) (float64, bool) {
	cleaned := amountNoiseRx.ReplaceAllString(input, "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if amount <= 0 || amount > maxPaymentAmount {
		return 0, false
	}
	return amount, true
}

// ---------- send_reminder / bulk_reminder -----------------------------------

func (e *Engine) sendReminderFlow(sess *session, input string) []models.Message {
	input = strings.TrimSpace(input)

	switch sess.awaiting {
	case "":
		members, err := e.store.ListMembers()
		if err != nil || len(members) == 0 {
			sess.reset()
			return e.wrap(e.quickReplyMsg("There are no members to remind yet. Add one first!",
				models.QuickReply{Text: "➕ Add Member", Payload: payloadAddMember},
				models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
		}
		sess.reminder = &reminderDraft{}
		sess.awaiting = awaitMember
		var b strings.Builder
		for i, m := range members {
			fmt.Fprintf(&b, "%d. %s (Balance: KSh %s)\n", i+1, m.Name, money.Format(m.CurrentBalance))
		}
		return e.wrap(e.textMsg("🔔 Send a reminder\n\nSelect a member by number, or type \"all\" to message everyone:\n\n" +
			strings.TrimRight(b.String(), "\n")))

	case awaitMember:
		if strings.EqualFold(input, "all") {
			sess.flow = flowBulkReminder
			sess.reminder = nil
			sess.awaiting = awaitMessage
			return e.wrap(e.textMsg(
				"📢 Bulk reminder to all members\n\nEnter your message. You can personalize it with {name}, {balance} and {total}:"))
		}
		members, err := e.store.ListMembers()
		if err != nil {
			return e.wrap(e.textMsg("❌ Something went wrong loading the member list. Please try again:"))
		}
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(members) {
			return e.wrap(e.textMsg("❌ Invalid selection. Please enter a valid member number or \"all\":"))
		}
		sess.reminder.member = members[idx-1]
		sess.awaiting = awaitMessage
		return e.wrap(e.textMsg(fmt.Sprintf(
			"Selected: *%s*\n\nEnter your reminder message:", sess.reminder.member.Name)))

	case awaitMessage:
		if len(input) < 10 {
			return e.wrap(e.textMsg("❌ That message is a bit short. Please write at least 10 characters:"))
		}
		return e.finishSendReminder(sess, input)
	}

	sess.reset()
	return e.wrap(e.mainMenu())
}

func (e *Engine) finishSendReminder(sess *session, message string) []models.Message {
	m := sess.reminder.member
	now := e.now()
	r := &models.Reminder{
		ID:            uuid.NewString(),
		MemberID:      m.ID,
		Message:       message,
		Type:          models.ReminderPaymentDue,
		Status:        models.ReminderSent,
		ScheduledDate: now,
		CreatedDate:   now,
	}
	if err := e.store.AddReminder(r); err != nil {
		log.Error().Err(err).Msg("failed to save reminder")
		sess.reset()
		return e.wrap(e.quickReplyMsg("❌ Sorry, I couldn't send that reminder. Please try again.",
			models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
	}
	// Delivery is fire-and-forget; the confirmation below stands regardless.
	e.out.Enqueue(m.Phone, message)

	sess.reset()
	return e.wrap(e.quickReplyMsg(fmt.Sprintf(
		"✅ Reminder sent successfully!\n\n📱 *To:* %s (%s)\n💬 *Message:* %s\n📅 *Sent:* %s\n\nThe member will receive this reminder via WhatsApp.",
		m.Name, m.Phone, message, now.Format("02 Jan 2006 15:04")),
		models.QuickReply{Text: "🔔 Send Another", Payload: payloadSendReminder},
		models.QuickReply{Text: "📋 View Reminders", Payload: payloadViewReminders},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
}

func (e *Engine) bulkReminderFlow(sess *session, input string) []models.Message {
	input = strings.TrimSpace(input)

	if sess.awaiting != awaitMessage {
		sess.reset()
		return e.wrap(e.mainMenu())
	}
	if len(input) < 10 {
		return e.wrap(e.textMsg("❌ That message is a bit short. Please write at least 10 characters:"))
	}

	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("failed to load members for bulk reminder")
		sess.reset()
		return e.wrap(e.quickReplyMsg("❌ Sorry, I couldn't send the bulk reminder. Please try again.",
			models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
	}

	// Bulk sends are delivery-only: no Reminder rows are written, unlike the
	// single-member path.
	for _, m := range members {
		e.out.Enqueue(m.Phone, personalize(input, m))
	}

	sess.reset()
	return e.wrap(e.quickReplyMsg(fmt.Sprintf(
		"✅ Bulk reminder queued for %d members!\n\n💬 *Message:* %s",
		len(members), input),
		models.QuickReply{Text: "🔔 Send Another", Payload: payloadSendReminder},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu}))
}

// personalize substitutes the {name}, {balance} and {total} tokens with the
// member's current values.
func personalize(message string, m models.Member) string {
	r := strings.NewReplacer(
		"{name}", m.Name,
		"{balance}", money.Format(m.CurrentBalance),
		"{total}", money.Format(m.TotalContributed),
	)
	return r.Replace(message)
}
