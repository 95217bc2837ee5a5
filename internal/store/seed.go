package store

import (
	"time"

	"github.com/kamaugm/chamabot/internal/models"
)

// SeedDemo loads the sample chama used for demos and local development.
func (s *Store) SeedDemo() error {
	members := []models.Member{
		{ID: "1", Name: "Mary Wanjiku", Phone: "+254712345678", Email: "mary@example.com",
			JoinDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), TotalContributed: 15000, CurrentBalance: 500},
		{ID: "2", Name: "John Mwangi", Phone: "+254723456789", Email: "john@example.com",
			JoinDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), TotalContributed: 12000, CurrentBalance: -1000},
		{ID: "3", Name: "Grace Akinyi", Phone: "+254734567890", Email: "grace@example.com",
			JoinDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), TotalContributed: 18000, CurrentBalance: 2000},
	}
	for i := range members {
		if err := s.AddMember(&members[i]); err != nil {
			return err
		}
	}

	payments := []struct {
		p models.Payment
	}{
		{models.Payment{ID: "p1", MemberID: "1", Amount: 1500,
			Date: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), Status: models.PaymentCompleted,
			Method: models.MethodMpesa, Reference: "MP240001"}},
		{models.Payment{ID: "p2", MemberID: "2", Amount: 1500,
			Date: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), Status: models.PaymentPending,
			Method: models.MethodBankTransfer, Reference: "BT240002"}},
	}
	// Seed rows are historical, so insert them without touching the members'
	// already-seeded running totals.
	for _, row := range payments {
		if _, err := s.db.Exec(`
            INSERT INTO payments (id, member_id, amount, date, status, method, reference)
            VALUES (?,?,?,?,?,?,?)`,
			row.p.ID, row.p.MemberID, row.p.Amount, row.p.Date.Unix(),
			string(row.p.Status), row.p.Method, row.p.Reference); err != nil {
			return err
		}
	}

	return s.AddReminder(&models.Reminder{
		ID:       "r1",
		MemberID: "2",
		Message:  "Monthly contribution of KSh 1,500 is due on 15th Dec",
		Type:     models.ReminderPaymentDue,
		Status:   models.ReminderPending,
		ScheduledDate: time.Date(2024, 12, 13, 0, 0, 0, 0, time.UTC),
		CreatedDate:   time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC),
	})
}
