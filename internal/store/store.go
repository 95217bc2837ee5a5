// Package store holds the chama domain data. It is backed by an in-memory
// SQLite database: everything resets on process restart, which is the
// intended lifecycle for this bot.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kamaugm/chamabot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// ErrNotFound is returned by single-row lookups when nothing matches.
var ErrNotFound = errors.New("store: not found")

type Store struct {
	db *sql.DB
}

// Open creates the in-memory database and applies the schema.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// database/sql would otherwise hand out fresh connections, each with its
	// own empty in-memory database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// ---------- members ---------------------------------------------------------

func (s *Store) AddMember(m *models.Member) error {
	_, err := s.db.Exec(`
        INSERT INTO members (id, name, phone, email, join_date, total_contributed, current_balance)
        VALUES (?,?,?,?,?,?,?)`,
		m.ID, m.Name, m.Phone, m.Email, m.JoinDate.Unix(), m.TotalContributed, m.CurrentBalance)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Store) MemberByID(id string) (*models.Member, error) {
	return s.scanMember(s.db.QueryRow(`
        SELECT id, name, phone, email, join_date, total_contributed, current_balance
        FROM members WHERE id=?`, id))
}

func (s *Store) MemberByPhone(phone string) (*models.Member, error) {
	return s.scanMember(s.db.QueryRow(`
        SELECT id, name, phone, email, join_date, total_contributed, current_balance
        FROM members WHERE phone=?`, phone))
}

func (s *Store) scanMember(row *sql.Row) (*models.Member, error) {
	var m models.Member
	var joined int64
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &joined, &m.TotalContributed, &m.CurrentBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.JoinDate = time.Unix(joined, 0).UTC()
	return &m, nil
}

// ListMembers returns members in join order. Flow steps that offer a numbered
// member selection rely on this ordering being stable.
func (s *Store) ListMembers() ([]models.Member, error) {
	rows, err := s.db.Query(`
        SELECT id, name, phone, email, join_date, total_contributed, current_balance
        FROM members ORDER BY join_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Member
	for rows.Next() {
		var m models.Member
		var joined int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &joined, &m.TotalContributed, &m.CurrentBalance); err != nil {
			return nil, err
		}
		m.JoinDate = time.Unix(joined, 0).UTC()
		res = append(res, m)
	}
	return res, rows.Err()
}

// ---------- payments --------------------------------------------------------

// AddPayment inserts the payment and moves the member's running totals in one
// transaction, so a payment is never recorded without its balance update.
func (s *Store) AddPayment(p *models.Payment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
        INSERT INTO payments (id, member_id, amount, date, status, method, reference)
        VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.MemberID, p.Amount, p.Date.Unix(), string(p.Status), p.Method, p.Reference); err != nil {
		return fmt.Errorf("add payment: %w", err)
	}

	res, err := tx.Exec(`
        UPDATE members
        SET total_contributed = total_contributed + ?,
            current_balance   = current_balance + ?
        WHERE id=?`, p.Amount, p.Amount, p.MemberID)
	if err != nil {
		return fmt.Errorf("update member totals: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ListPayments returns payments, most recent first.
func (s *Store) ListPayments() ([]models.Payment, error) {
	return s.queryPayments(`
        SELECT id, member_id, amount, date, status, method, reference
        FROM payments ORDER BY date DESC, id DESC`)
}

func (s *Store) PaymentsByMember(memberID string) ([]models.Payment, error) {
	return s.queryPayments(`
        SELECT id, member_id, amount, date, status, method, reference
        FROM payments WHERE member_id=? ORDER BY date DESC, id DESC`, memberID)
}

func (s *Store) queryPayments(q string, args ...any) ([]models.Payment, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Payment
	for rows.Next() {
		var p models.Payment
		var date int64
		var status string
		if err := rows.Scan(&p.ID, &p.MemberID, &p.Amount, &date, &status, &p.Method, &p.Reference); err != nil {
			return nil, err
		}
		p.Date = time.Unix(date, 0).UTC()
		p.Status = models.PaymentStatus(status)
		res = append(res, p)
	}
	return res, rows.Err()
}

// ---------- reminders -------------------------------------------------------

func (s *Store) AddReminder(r *models.Reminder) error {
	_, err := s.db.Exec(`
        INSERT INTO reminders (id, member_id, message, type, status, scheduled_date, created_date)
        VALUES (?,?,?,?,?,?,?)`,
		r.ID, r.MemberID, r.Message, string(r.Type), string(r.Status),
		r.ScheduledDate.Unix(), r.CreatedDate.Unix())
	if err != nil {
		return fmt.Errorf("add reminder: %w", err)
	}
	return nil
}

func (s *Store) MarkReminderSent(id string) error {
	res, err := s.db.Exec(`UPDATE reminders SET status=? WHERE id=?`, string(models.ReminderSent), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReminders returns reminders, most recently created first.
func (s *Store) ListReminders() ([]models.Reminder, error) {
	rows, err := s.db.Query(`
        SELECT id, member_id, message, type, status, scheduled_date, created_date
        FROM reminders ORDER BY created_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Reminder
	for rows.Next() {
		var r models.Reminder
		var sched, created int64
		var typ, status string
		if err := rows.Scan(&r.ID, &r.MemberID, &r.Message, &typ, &status, &sched, &created); err != nil {
			return nil, err
		}
		r.Type = models.ReminderType(typ)
		r.Status = models.ReminderStatus(status)
		r.ScheduledDate = time.Unix(sched, 0).UTC()
		r.CreatedDate = time.Unix(created, 0).UTC()
		res = append(res, r)
	}
	return res, rows.Err()
}
