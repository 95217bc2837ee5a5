// Package export turns store snapshots into downloadable report artifacts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kamaugm/chamabot/internal/store"
)

type Exporter struct {
	store *store.Store
	dir   string
	now   func() time.Time
}

func New(st *store.Store, dir string) *Exporter {
	return &Exporter{store: st, dir: dir, now: time.Now}
}

// ExportMembers writes the member register and returns the artifact path.
func (e *Exporter) ExportMembers() (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("members_%s.csv", e.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export members: %w", err)
	}
	defer f.Close()

	if err := e.WriteMembersCSV(f); err != nil {
		return "", err
	}
	return path, nil
}

// ExportPayments writes the payment log and returns the artifact path.
func (e *Exporter) ExportPayments() (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("payments_%s.csv", e.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export payments: %w", err)
	}
	defer f.Close()

	if err := e.WritePaymentsCSV(f); err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) WriteMembersCSV(w io.Writer) error {
	members, err := e.store.ListMembers()
	if err != nil {
		return fmt.Errorf("export members: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Phone", "Email", "Join Date", "Total Contributed", "Current Balance"}); err != nil {
		return err
	}
	for _, m := range members {
		if err := cw.Write([]string{
			m.Name, m.Phone, m.Email,
			m.JoinDate.Format("2006-01-02"),
			strconv.FormatFloat(m.TotalContributed, 'f', 2, 64),
			strconv.FormatFloat(m.CurrentBalance, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Exporter) WritePaymentsCSV(w io.Writer) error {
	payments, err := e.store.ListPayments()
	if err != nil {
		return fmt.Errorf("export payments: %w", err)
	}
	members, err := e.store.ListMembers()
	if err != nil {
		return fmt.Errorf("export payments: %w", err)
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Member", "Amount", "Method", "Reference", "Status"}); err != nil {
		return err
	}
	for _, p := range payments {
		if err := cw.Write([]string{
			p.Date.Format("2006-01-02"),
			names[p.MemberID],
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			p.Method, p.Reference, string(p.Status),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
