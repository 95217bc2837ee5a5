package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/money"
)

var mainMenuReplies = []models.QuickReply{
	{Text: "👥 Members", Payload: "1"},
	{Text: "💰 Payments", Payload: "2"},
	{Text: "🔔 Reminders", Payload: "3"},
	{Text: "📊 Reports", Payload: "4"},
	{Text: "❓ Help", Payload: "5"},
}

func (e *Engine) welcomeMessage() models.Message {
	return e.quickReplyMsg(
		"👋 Welcome to Chama Payment Reminder Bot!\n\nI'm here to help you manage your chama payments, members, and reminders efficiently. What would you like to do today?",
		mainMenuReplies...)
}

func (e *Engine) mainMenu() models.Message {
	return e.quickReplyMsg("📋 *Main Menu*\n\nChoose an option:", mainMenuReplies...)
}

func (e *Engine) membersMenu() models.Message {
	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("members menu: list failed")
	}
	upToDate := 0
	for _, m := range members {
		if m.CurrentBalance >= 0 {
			upToDate++
		}
	}
	return e.quickReplyMsg(fmt.Sprintf(
		"👥 *Members Management*\n\n📊 Total Members: %d\n✅ Up to date: %d\n⚠️ Behind: %d\n\nWhat would you like to do?",
		len(members), upToDate, len(members)-upToDate),
		models.QuickReply{Text: "➕ Add Member", Payload: payloadAddMember},
		models.QuickReply{Text: "👀 View Members", Payload: payloadViewMembers},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) paymentsMenu() models.Message {
	payments, err := e.store.ListPayments()
	if err != nil {
		log.Error().Err(err).Msg("payments menu: list failed")
	}
	var total float64
	pending := 0
	for _, p := range payments {
		total += p.Amount
		if p.Status == models.PaymentPending {
			pending++
		}
	}
	return e.quickReplyMsg(fmt.Sprintf(
		"💰 *Payments Overview*\n\n📊 Total Payments: %d\n💵 Total Amount: KSh %s\n⏳ Pending: %d\n\nWhat would you like to do?",
		len(payments), money.Format(total), pending),
		models.QuickReply{Text: "💰 Record Payment", Payload: payloadRecordPayment},
		models.QuickReply{Text: "👀 View Payments", Payload: payloadViewPayments},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) remindersMenu() models.Message {
	reminders, err := e.store.ListReminders()
	if err != nil {
		log.Error().Err(err).Msg("reminders menu: list failed")
	}
	pending := 0
	for _, r := range reminders {
		if r.Status == models.ReminderPending {
			pending++
		}
	}
	return e.quickReplyMsg(fmt.Sprintf(
		"🔔 *Reminders Center*\n\n📊 Total Reminders: %d\n⏳ Pending: %d\n✅ Sent: %d\n\nWhat would you like to do?",
		len(reminders), pending, len(reminders)-pending),
		models.QuickReply{Text: "🔔 Send Reminder", Payload: payloadSendReminder},
		models.QuickReply{Text: "👀 View Reminders", Payload: payloadViewReminders},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) reportsMenu() models.Message {
	members, err := e.store.ListMembers()
	if err != nil {
		log.Error().Err(err).Msg("reports menu: list failed")
	}
	var total float64
	for _, m := range members {
		total += m.TotalContributed
	}
	var average float64
	if len(members) > 0 {
		average = total / float64(len(members))
	}
	return e.quickReplyMsg(fmt.Sprintf(
		"📊 *Reports & Analytics*\n\n💰 Total Contributions: KSh %s\n📈 Average per Member: KSh %s\n👥 Active Members: %d\n\nSelect a report:",
		money.Format(total), money.Format(average), len(members)),
		models.QuickReply{Text: "📊 Member Summary", Payload: payloadMemberSummary},
		models.QuickReply{Text: "💰 Payment Report", Payload: payloadPaymentReport},
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) helpMessage() models.Message {
	return e.quickReplyMsg(
		"❓ *Help & Commands*\n\n🤖 *Available Commands:*\n• Type \"menu\" - Main menu\n• Type \"members\" - Member management\n• Type \"payments\" - Payment tracking\n• Type \"reminders\" - Send reminders\n• Type \"reports\" - View reports\n• Type \"help\" - This help message\n\n💡 *Tips:*\n• Use the quick reply buttons for faster navigation\n• All data is kept for this session only\n\n📞 *Support:* Contact admin for technical issues",
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

func (e *Engine) unknownCommandMessage() models.Message {
	return e.quickReplyMsg(
		"🤔 I didn't understand that command. Here are some things you can try:\n\n• Type \"menu\" for the main menu\n• Type \"help\" for available commands\n• Use the quick reply buttons below",
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu},
		models.QuickReply{Text: "❓ Help", Payload: payloadHelp})
}
