package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/kamaugm/chamabot/internal/models"
	"github.com/kamaugm/chamabot/internal/store"
)

const testUser = "+254799000111"

type fakeSender struct {
	sent []sentMessage
}

type sentMessage struct {
	to   string
	body string
}

func (f *fakeSender) Enqueue(to, body string) {
	f.sent = append(f.sent, sentMessage{to: to, body: body})
}

type fakeExporter struct {
	fail bool
}

func (f *fakeExporter) ExportMembers() (string, error) {
	if f.fail {
		return "", errFake
	}
	return "members.csv", nil
}

func (f *fakeExporter) ExportPayments() (string, error) {
	if f.fail {
		return "", errFake
	}
	return "payments.csv", nil
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "fake failure" }

func newTestEngine(t *testing.T) (*Engine, *store.Store, *fakeSender) {
	t.Helper()
	st, err := store.Open()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	out := &fakeSender{}
	e := New(st, out, &fakeExporter{})
	e.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return e, st, out
}

func addTestMember(t *testing.T, st *store.Store, id, name, phone string, total, balance float64) {
	t.Helper()
	err := st.AddMember(&models.Member{
		ID: id, Name: name, Phone: phone, Email: name + "@example.com",
		JoinDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalContributed: total, CurrentBalance: balance,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
}

func memberCount(t *testing.T, st *store.Store) int {
	t.Helper()
	members, err := st.ListMembers()
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	return len(members)
}

func lastText(msgs []models.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

// ---------- top-level dispatch ----------------------------------------------

func TestTopLevelDispatch(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tests := []struct {
		input string
		want  string
	}{
		{"hi", "Welcome to Chama"},
		{"Hello", "Welcome to Chama"},
		{"/start", "Welcome to Chama"},
		{"menu", "Main Menu"},
		{"MAIN MENU", "Main Menu"},
		{"members", "Members Management"},
		{"1", "Members Management"},
		{"show me payments", "Payments Overview"},
		{"2", "Payments Overview"},
		{"reminders", "Reminders Center"},
		{"3", "Reminders Center"},
		{"reports please", "Reports"},
		{"4", "Reports"},
		{"help", "Help & Commands"},
		{"5", "Help & Commands"},
		{"what is the weather", "didn't understand"},
	}
	for _, tc := range tests {
		msgs := e.HandleMessage(testUser, tc.input)
		if len(msgs) != 1 {
			t.Fatalf("input %q: got %d messages, want 1", tc.input, len(msgs))
		}
		if !strings.Contains(msgs[0].Text, tc.want) {
			t.Errorf("input %q: reply %q does not contain %q", tc.input, msgs[0].Text, tc.want)
		}
	}
}

func TestUnknownQuickReplyFallsBackToText(t *testing.T) {
	e, _, _ := newTestEngine(t)

	msgs := e.HandleQuickReply(testUser, "no_such_payload")
	if !strings.Contains(lastText(msgs), "didn't understand") {
		t.Errorf("unexpected reply: %q", lastText(msgs))
	}
}

// ---------- add_member ------------------------------------------------------

func runAddMemberToConfirm(t *testing.T, e *Engine, name, phone, email string) {
	t.Helper()
	e.HandleQuickReply(testUser, "add_member")
	if msgs := e.HandleMessage(testUser, name); !strings.Contains(lastText(msgs), "phone number") {
		t.Fatalf("after name: %q", lastText(msgs))
	}
	if msgs := e.HandleMessage(testUser, phone); !strings.Contains(lastText(msgs), "email") {
		t.Fatalf("after phone: %q", lastText(msgs))
	}
	if msgs := e.HandleMessage(testUser, email); !strings.Contains(lastText(msgs), "confirm") {
		t.Fatalf("after email: %q", lastText(msgs))
	}
}

func TestAddMemberFlow(t *testing.T) {
	e, st, _ := newTestEngine(t)

	runAddMemberToConfirm(t, e, "Jane Njeri", "+254700111222", "jane@example.com")

	msgs := e.HandleQuickReply(testUser, "confirm_add_member")
	if !strings.Contains(lastText(msgs), "Member added successfully") {
		t.Fatalf("confirm reply: %q", lastText(msgs))
	}

	members, err := st.ListMembers()
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}
	m := members[0]
	if m.Name != "Jane Njeri" || m.Phone != "+254700111222" || m.Email != "jane@example.com" {
		t.Errorf("member fields wrong: %+v", m)
	}
	// New members always start from zero, whatever was typed along the way.
	if m.TotalContributed != 0 || m.CurrentBalance != 0 {
		t.Errorf("new member should start at zero, got total=%v balance=%v", m.TotalContributed, m.CurrentBalance)
	}

	// The flow is done; plain text goes back to top-level dispatch.
	if reply := lastText(e.HandleMessage(testUser, "hi")); !strings.Contains(reply, "Welcome") {
		t.Errorf("session not reset after completion: %q", reply)
	}
}

func TestAddMemberPhoneValidation(t *testing.T) {
	e, st, _ := newTestEngine(t)

	e.HandleQuickReply(testUser, "add_member")
	e.HandleMessage(testUser, "Jane Njeri")

	for _, bad := range []string{"0712345678", "+25471234567", "+254abc345678"} {
		msgs := e.HandleMessage(testUser, bad)
		if !strings.Contains(lastText(msgs), "valid phone number") {
			t.Errorf("phone %q: expected re-prompt, got %q", bad, lastText(msgs))
		}
	}
	if memberCount(t, st) != 0 {
		t.Error("invalid phones must not create members")
	}

	// The step did not advance: a valid phone is still accepted here.
	if msgs := e.HandleMessage(testUser, "+254712345678"); !strings.Contains(lastText(msgs), "email") {
		t.Errorf("valid phone after failures not accepted: %q", lastText(msgs))
	}
}

func TestAddMemberShortNameRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.HandleQuickReply(testUser, "add_member")
	if msgs := e.HandleMessage(testUser, "J"); !strings.Contains(lastText(msgs), "too short") {
		t.Errorf("short name accepted: %q", lastText(msgs))
	}
}

func TestAddMemberEmailValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.HandleQuickReply(testUser, "add_member")
	e.HandleMessage(testUser, "Jane Njeri")
	e.HandleMessage(testUser, "+254700111222")

	for _, bad := range []string{"janeexample.com", "jane@example", "jane @example.com"} {
		msgs := e.HandleMessage(testUser, bad)
		if !strings.Contains(lastText(msgs), "valid email") {
			t.Errorf("email %q: expected re-prompt, got %q", bad, lastText(msgs))
		}
	}
}

func TestAddMemberDuplicatePhone(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "Mary Wanjiku", "+254712345678", 0, 0)

	e.HandleQuickReply(testUser, "add_member")
	e.HandleMessage(testUser, "Jane Njeri")

	msgs := e.HandleMessage(testUser, "+254712345678")
	if !strings.Contains(lastText(msgs), "Mary Wanjiku") {
		t.Errorf("duplicate phone message should name the holder, got %q", lastText(msgs))
	}
	if memberCount(t, st) != 1 {
		t.Error("duplicate phone must not create a member")
	}
}

func TestAddMemberCancelAtConfirm(t *testing.T) {
	e, st, _ := newTestEngine(t)

	runAddMemberToConfirm(t, e, "Jane Njeri", "+254700111222", "jane@example.com")

	msgs := e.HandleQuickReply(testUser, "cancel_add_member")
	if !strings.Contains(lastText(msgs), "discarded") {
		t.Fatalf("cancel reply: %q", lastText(msgs))
	}
	if memberCount(t, st) != 0 {
		t.Error("cancel must not create a member")
	}
	if reply := lastText(e.HandleMessage(testUser, "hi")); !strings.Contains(reply, "Welcome") {
		t.Errorf("session not idle after cancel: %q", reply)
	}
}

func TestAddMemberConfirmRequiresButton(t *testing.T) {
	e, st, _ := newTestEngine(t)

	runAddMemberToConfirm(t, e, "Jane Njeri", "+254700111222", "jane@example.com")

	msgs := e.HandleMessage(testUser, "yes please")
	if !strings.Contains(lastText(msgs), "buttons") {
		t.Errorf("free text at confirm should re-prompt, got %q", lastText(msgs))
	}
	if memberCount(t, st) != 0 {
		t.Error("free text at confirm must not create a member")
	}
}

// ---------- record_payment --------------------------------------------------

func TestRecordPaymentFlow(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "John Mwangi", "+254723456789", 100, -50)

	msgs := e.HandleQuickReply(testUser, "record_payment")
	if !strings.Contains(lastText(msgs), "John Mwangi") {
		t.Fatalf("member list: %q", lastText(msgs))
	}

	if msgs := e.HandleMessage(testUser, "1"); !strings.Contains(lastText(msgs), "payment amount") {
		t.Fatalf("after member selection: %q", lastText(msgs))
	}
	if msgs := e.HandleMessage(testUser, "KSh 1,500"); !strings.Contains(lastText(msgs), "payment method") {
		t.Fatalf("after amount: %q", lastText(msgs))
	}
	if msgs := e.HandleQuickReply(testUser, "M-Pesa"); !strings.Contains(lastText(msgs), "reference") {
		t.Fatalf("after method: %q", lastText(msgs))
	}
	if msgs := e.HandleMessage(testUser, "MP250601"); !strings.Contains(lastText(msgs), "Payment recorded successfully") {
		t.Fatalf("after reference: %q", lastText(msgs))
	}

	m, err := st.MemberByID("m1")
	if err != nil {
		t.Fatal(err)
	}
	if m.CurrentBalance != -50+1500 {
		t.Errorf("balance = %v, want %v", m.CurrentBalance, -50+1500)
	}
	if m.TotalContributed != 100+1500 {
		t.Errorf("total = %v, want %v", m.TotalContributed, 100+1500)
	}

	payments, err := st.ListPayments()
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(payments))
	}
	p := payments[0]
	if p.Status != models.PaymentCompleted || p.Method != "M-Pesa" || p.Reference != "MP250601" || p.Amount != 1500 {
		t.Errorf("payment fields wrong: %+v", p)
	}
}

func TestRecordPaymentMemberSelectionBounds(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "John Mwangi", "+254723456789", 0, 0)

	e.HandleQuickReply(testUser, "record_payment")
	for _, bad := range []string{"0", "2", "abc", "-1"} {
		if msgs := e.HandleMessage(testUser, bad); !strings.Contains(lastText(msgs), "Invalid selection") {
			t.Errorf("selection %q: got %q", bad, lastText(msgs))
		}
	}
	// Still on the member step.
	if msgs := e.HandleMessage(testUser, "1"); !strings.Contains(lastText(msgs), "payment amount") {
		t.Errorf("valid selection after failures: %q", lastText(msgs))
	}
}

func TestRecordPaymentAmountBounds(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "John Mwangi", "+254723456789", 0, 0)

	e.HandleQuickReply(testUser, "record_payment")
	e.HandleMessage(testUser, "1")

	for _, bad := range []string{"0", "-50", "1000001", "not a number"} {
		if msgs := e.HandleMessage(testUser, bad); !strings.Contains(lastText(msgs), "valid amount") {
			t.Errorf("amount %q: got %q", bad, lastText(msgs))
		}
	}
	if msgs := e.HandleMessage(testUser, "1000000"); !strings.Contains(lastText(msgs), "payment method") {
		t.Errorf("amount 1000000 should be accepted: %q", lastText(msgs))
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1500", 1500, true},
		{"KSh 1,500", 1500, true},
		{"1500.50", 1500.50, true},
		{"0.01", 0.01, true},
		{"1000000", 1000000, true},
		{"1000001", 0, false},
		{"0", 0, false},
		{"-50", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseAmount(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("parseAmount(%q) = (%v, %v), want (%v, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRecordPaymentNoMembers(t *testing.T) {
	e, _, _ := newTestEngine(t)

	msgs := e.HandleQuickReply(testUser, "record_payment")
	if !strings.Contains(lastText(msgs), "no members") {
		t.Fatalf("expected no-members notice, got %q", lastText(msgs))
	}
	// Flow must not be left hanging.
	if reply := lastText(e.HandleMessage(testUser, "hi")); !strings.Contains(reply, "Welcome") {
		t.Errorf("session should be idle: %q", reply)
	}
}

// ---------- send_reminder / bulk_reminder -----------------------------------

func TestSendReminderSingleMember(t *testing.T) {
	e, st, out := newTestEngine(t)
	addTestMember(t, st, "m1", "Grace Akinyi", "+254734567890", 18000, 2000)

	e.HandleQuickReply(testUser, "send_reminder")
	if msgs := e.HandleMessage(testUser, "1"); !strings.Contains(lastText(msgs), "Grace Akinyi") {
		t.Fatalf("after selection: %q", lastText(msgs))
	}

	if msgs := e.HandleMessage(testUser, "too short"); !strings.Contains(lastText(msgs), "at least 10 characters") {
		t.Fatalf("short message accepted: %q", lastText(msgs))
	}

	msgs := e.HandleMessage(testUser, "Please pay your monthly contribution.")
	if !strings.Contains(lastText(msgs), "Reminder sent successfully") {
		t.Fatalf("after message: %q", lastText(msgs))
	}

	reminders, err := st.ListReminders()
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders))
	}
	if reminders[0].Status != models.ReminderSent || reminders[0].MemberID != "m1" {
		t.Errorf("reminder fields wrong: %+v", reminders[0])
	}

	if len(out.sent) != 1 || out.sent[0].to != "+254734567890" {
		t.Errorf("expected one queued send to the member, got %+v", out.sent)
	}
}

func TestSendReminderAllBranchesToBulk(t *testing.T) {
	for _, token := range []string{"all", "ALL", "All"} {
		t.Run(token, func(t *testing.T) {
			e, st, out := newTestEngine(t)
			addTestMember(t, st, "m1", "Mary Wanjiku", "+254712345678", 15000, 500)
			addTestMember(t, st, "m2", "John Mwangi", "+254723456789", 12000, -1000)

			e.HandleQuickReply(testUser, "send_reminder")
			msgs := e.HandleMessage(testUser, token)
			if !strings.Contains(lastText(msgs), "Bulk reminder") {
				t.Fatalf("%q did not branch to bulk: %q", token, lastText(msgs))
			}

			msgs = e.HandleMessage(testUser, "Hi {name}, balance KSh {balance}, total KSh {total}.")
			if !strings.Contains(lastText(msgs), "queued for 2 members") {
				t.Fatalf("bulk send reply: %q", lastText(msgs))
			}

			if len(out.sent) != 2 {
				t.Fatalf("expected 2 queued sends, got %d", len(out.sent))
			}
			if out.sent[1].body != "Hi John Mwangi, balance KSh -1,000, total KSh 12,000." {
				t.Errorf("personalization wrong: %q", out.sent[1].body)
			}

			// The bulk path deliberately writes no reminder rows.
			reminders, err := st.ListReminders()
			if err != nil {
				t.Fatal(err)
			}
			if len(reminders) != 0 {
				t.Errorf("bulk send must not persist reminders, got %d", len(reminders))
			}
		})
	}
}

// ---------- menus and reports -----------------------------------------------

func TestMenuBuilderIdempotent(t *testing.T) {
	e, st, _ := newTestEngine(t)
	if err := st.SeedDemo(); err != nil {
		t.Fatal(err)
	}

	for _, input := range []string{"menu", "members", "payments", "reminders", "reports"} {
		first := lastText(e.HandleMessage(testUser, input))
		second := lastText(e.HandleMessage(testUser, input))
		if first != second {
			t.Errorf("menu %q not idempotent:\n%q\n%q", input, first, second)
		}
	}

	for _, payload := range []string{"view_members", "view_payments", "view_reminders", "member_summary", "payment_report"} {
		first := lastText(e.HandleQuickReply(testUser, payload))
		second := lastText(e.HandleQuickReply(testUser, payload))
		if first != second {
			t.Errorf("report %q not idempotent:\n%q\n%q", payload, first, second)
		}
	}
}

func TestMembersMenuCounts(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "Mary Wanjiku", "+254712345678", 15000, 500)
	addTestMember(t, st, "m2", "John Mwangi", "+254723456789", 12000, -1000)

	text := lastText(e.HandleMessage(testUser, "members"))
	for _, want := range []string{"Total Members: 2", "Up to date: 1", "Behind: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("members menu missing %q:\n%s", want, text)
		}
	}
}

func TestPaymentReportMonthlyBuckets(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "Mary Wanjiku", "+254712345678", 0, 0)

	dates := []time.Time{
		time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		err := st.AddPayment(&models.Payment{
			ID: string(rune('a' + i)), MemberID: "m1", Amount: 1000, Date: d,
			Status: models.PaymentCompleted, Method: models.MethodCash, Reference: "REF00" + string(rune('1'+i)),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	text := lastText(e.HandleQuickReply(testUser, "payment_report"))
	if !strings.Contains(text, "Apr 2025: KSh 2,000") {
		t.Errorf("April bucket missing:\n%s", text)
	}
	if !strings.Contains(text, "May 2025: KSh 1,000") {
		t.Errorf("May bucket missing:\n%s", text)
	}
	if strings.Index(text, "Apr 2025") > strings.Index(text, "May 2025") {
		t.Error("monthly breakdown not in chronological order")
	}
}

func TestViewPaymentsBounded(t *testing.T) {
	e, st, _ := newTestEngine(t)
	addTestMember(t, st, "m1", "Mary Wanjiku", "+254712345678", 0, 0)

	for i := 0; i < 12; i++ {
		err := st.AddPayment(&models.Payment{
			ID: string(rune('a' + i)), MemberID: "m1", Amount: 100,
			Date:   time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Status: models.PaymentCompleted, Method: models.MethodCash, Reference: "REF",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	text := lastText(e.HandleQuickReply(testUser, "view_payments"))
	if !strings.Contains(text, "Recent Payments (12)") {
		t.Errorf("total count missing:\n%s", text)
	}
	if got := strings.Count(text, "💰 *KSh"); got != 10 {
		t.Errorf("listing shows %d payments, want 10", got)
	}
}

// ---------- exports ---------------------------------------------------------

func TestExportPayloads(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if text := lastText(e.HandleQuickReply(testUser, "download_member_pdf")); !strings.Contains(text, "members.csv") {
		t.Errorf("member export reply: %q", text)
	}
	if text := lastText(e.HandleQuickReply(testUser, "download_payment_pdf")); !strings.Contains(text, "payments.csv") {
		t.Errorf("payment export reply: %q", text)
	}

	e.exporter = &fakeExporter{fail: true}
	if text := lastText(e.HandleQuickReply(testUser, "download_member_pdf")); !strings.Contains(text, "export failed") {
		t.Errorf("failed export reply: %q", text)
	}
}

// ---------- per-conversation state ------------------------------------------

func TestConversationsAreIndependent(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.HandleQuickReply(testUser, "add_member")

	// A second conversation is still at the top-level menu.
	other := "+254722000333"
	if reply := lastText(e.HandleMessage(other, "hi")); !strings.Contains(reply, "Welcome") {
		t.Errorf("second conversation should be idle: %q", reply)
	}

	// And the first is still waiting for a name.
	if reply := lastText(e.HandleMessage(testUser, "Jane Njeri")); !strings.Contains(reply, "phone number") {
		t.Errorf("first conversation lost its flow: %q", reply)
	}
}
