// Package bot implements the conversational flow engine for the chama admin:
// a per-conversation state machine that turns free text and quick-reply
// payloads into guided add-member / record-payment / send-reminder dialogues.
package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/store"
)

// Sender queues a fire-and-forget outbound text. Delivery failures are the
// sender's problem; the engine's replies never depend on them.
type Sender interface {
	Enqueue(to, body string)
}

// Exporter produces downloadable report artifacts from the current data.
type Exporter interface {
	ExportMembers() (string, error)
	ExportPayments() (string, error)
}

type flow int

const (
	flowNone flow = iota
	flowAddMember
	flowRecordPayment
	flowSendReminder
	flowBulkReminder
)

// Step tags for the input a flow is waiting on.
const (
	awaitName      = "name"
	awaitPhone     = "phone"
	awaitEmail     = "email"
	awaitConfirm   = "confirm"
	awaitMember    = "member"
	awaitAmount    = "amount"
	awaitMethod    = "method"
	awaitReference = "reference"
	awaitMessage   = "message"
)

// Quick-reply payload tokens.
const (
	payloadAddMember     = "add_member"
	payloadRecordPayment = "record_payment"
	payloadSendReminder  = "send_reminder"
	payloadConfirmAdd    = "confirm_add_member"
	payloadCancelAdd     = "cancel_add_member"
	payloadViewMembers   = "view_members"
	payloadViewPayments  = "view_payments"
	payloadViewReminders = "view_reminders"
	payloadMemberSummary = "member_summary"
	payloadPaymentReport = "payment_report"
	payloadMemberPDF     = "download_member_pdf"
	payloadPaymentPDF    = "download_payment_pdf"
	payloadMenu          = "menu"
	payloadHelp          = "help"
)

// Typed per-flow drafts: each flow collects exactly the fields it needs.
type addMemberDraft struct {
	name  string
	phone string
	email string
}

type paymentDraft struct {
	member models.Member
	amount float64
	method string
}

type reminderDraft struct {
	member models.Member
}

// session is one conversation's flow state.
type session struct {
	flow     flow
	awaiting string

	addMember *addMemberDraft
	payment   *paymentDraft
	reminder  *reminderDraft
}

func (s *session) reset() {
	*s = session{}
}

type Engine struct {
	store    *store.Store
	out      Sender
	exporter Exporter
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func New(st *store.Store, out Sender, exporter Exporter) *Engine {
	return &Engine{
		store:    st,
		out:      out,
		exporter: exporter,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// session returns the flow state for a conversation, creating it idle.
func (e *Engine) session(from string) *session {
	s, ok := e.sessions[from]
	if !ok {
		s = &session{}
		e.sessions[from] = s
	}
	return s
}

// HandleMessage processes a free-text utterance from one conversation and
// returns the replies. It never fails: bad input becomes a re-prompt.
func (e *Engine) HandleMessage(from, text string) []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handleMessage(e.session(from), text)
}

func (e *Engine) handleMessage(sess *session, text string) []models.Message {
	if sess.flow != flowNone {
		return e.handleFlow(sess, text)
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "hi" || lower == "hello" || lower == "start" || lower == "/start":
		return e.wrap(e.welcomeMessage())
	case lower == "menu" || lower == "main menu":
		return e.wrap(e.mainMenu())
	case strings.Contains(lower, "member") || lower == "1":
		return e.wrap(e.membersMenu())
	case strings.Contains(lower, "payment") || lower == "2":
		return e.wrap(e.paymentsMenu())
	case strings.Contains(lower, "reminder") || lower == "3":
		return e.wrap(e.remindersMenu())
	case strings.Contains(lower, "report") || lower == "4":
		return e.wrap(e.reportsMenu())
	case strings.Contains(lower, "help") || lower == "5":
		return e.wrap(e.helpMessage())
	default:
		return e.wrap(e.unknownCommandMessage())
	}
}

// HandleQuickReply processes a quick-reply payload. Unrecognized payloads
// are treated as plain text and go through the normal dispatch.
func (e *Engine) HandleQuickReply(from, payload string) []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.session(from)
	switch payload {
	case payloadAddMember:
		sess.reset()
		sess.flow = flowAddMember
		return e.addMemberFlow(sess, "")
	case payloadRecordPayment:
		sess.reset()
		sess.flow = flowRecordPayment
		return e.recordPaymentFlow(sess, "")
	case payloadSendReminder:
		sess.reset()
		sess.flow = flowSendReminder
		return e.sendReminderFlow(sess, "")
	case payloadViewMembers:
		return e.wrap(e.viewMembers())
	case payloadViewPayments:
		return e.wrap(e.viewPayments())
	case payloadViewReminders:
		return e.wrap(e.viewReminders())
	case payloadMemberSummary:
		return e.wrap(e.memberSummary())
	case payloadPaymentReport:
		return e.wrap(e.paymentReport())
	case payloadMemberPDF:
		return e.wrap(e.export("member register", e.exporter.ExportMembers))
	case payloadPaymentPDF:
		return e.wrap(e.export("payment report", e.exporter.ExportPayments))
	default:
		return e.handleMessage(sess, payload)
	}
}

func (e *Engine) handleFlow(sess *session, text string) []models.Message {
	switch sess.flow {
	case flowAddMember:
		return e.addMemberFlow(sess, text)
	case flowRecordPayment:
		return e.recordPaymentFlow(sess, text)
	case flowSendReminder:
		return e.sendReminderFlow(sess, text)
	case flowBulkReminder:
		return e.bulkReminderFlow(sess, text)
	default:
		sess.reset()
		return e.wrap(e.mainMenu())
	}
}

func (e *Engine) export(label string, run func() (string, error)) models.Message {
	path, err := run()
	if err != nil {
		log.Error().Err(err).Str("report", label).Msg("export failed")
		return e.quickReplyMsg("❌ Sorry, the "+label+" export failed. Please try again later.",
			models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
	}
	return e.quickReplyMsg("📄 Your "+label+" export is ready: "+path,
		models.QuickReply{Text: "📋 Main Menu", Payload: payloadMenu})
}

// ---------- message construction -------------------------------------------

func (e *Engine) textMsg(text string) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    "bot",
		Timestamp: e.now(),
		Type:      models.MessageText,
	}
}

func (e *Engine) quickReplyMsg(text string, replies ...models.QuickReply) models.Message {
	m := e.textMsg(text)
	m.Type = models.MessageQuickReply
	m.QuickReplies = replies
	return m
}

func (e *Engine) wrap(msgs ...models.Message) []models.Message {
	return msgs
}
