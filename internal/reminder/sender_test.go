package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamaugm/chamabot/internal/models"
)

type fakeTransport struct {
	failFor map[string]bool
	sent    []string
}

func (f *fakeTransport) SendText(ctx context.Context, to, body string) error {
	if f.failFor[to] {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeRecorder struct {
	added  []models.Reminder
	marked []string
}

func (f *fakeRecorder) AddReminder(r *models.Reminder) error {
	f.added = append(f.added, *r)
	return nil
}

func (f *fakeRecorder) MarkReminderSent(id string) error {
	f.marked = append(f.marked, id)
	return nil
}

func TestSendBatch(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	members := []models.Member{
		{ID: "1", Name: "Mary Wanjiku", Phone: "+254712345678"},
		{ID: "2", Name: "John Mwangi", Phone: "+254723456789"},
	}
	reminders := []models.Reminder{
		{ID: "r1", MemberID: "1", Message: "msg one", Status: models.ReminderPending, CreatedDate: now},
		{ID: "r2", MemberID: "2", Message: "msg two", Status: models.ReminderPending, CreatedDate: now},
		{ID: "r3", MemberID: "ghost", Message: "orphan", Status: models.ReminderPending, CreatedDate: now},
	}

	transport := &fakeTransport{failFor: map[string]bool{"+254723456789": true}}
	rec := &fakeRecorder{}

	sent := SendBatch(context.Background(), reminders, members, transport, rec)
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	// Unknown members are skipped before persistence.
	if len(rec.added) != 2 {
		t.Errorf("persisted %d reminders, want 2", len(rec.added))
	}
	// Only the successful delivery gets marked sent; the failed one stays
	// pending for the next pass.
	if len(rec.marked) != 1 || rec.marked[0] != "r1" {
		t.Errorf("marked = %v, want [r1]", rec.marked)
	}
	if reminders[0].Status != models.ReminderSent {
		t.Errorf("r1 status = %s, want sent", reminders[0].Status)
	}
	if reminders[1].Status != models.ReminderPending {
		t.Errorf("r2 status = %s, want pending", reminders[1].Status)
	}
}

func TestSendBatchNilRecorder(t *testing.T) {
	members := []models.Member{{ID: "1", Name: "Mary Wanjiku", Phone: "+254712345678"}}
	reminders := []models.Reminder{{ID: "r1", MemberID: "1", Message: "msg", Status: models.ReminderPending}}

	transport := &fakeTransport{}
	if sent := SendBatch(context.Background(), reminders, members, transport, nil); sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(transport.sent) != 1 {
		t.Errorf("delivered %d messages, want 1", len(transport.sent))
	}
}
