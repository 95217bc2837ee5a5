package models

import "time"

// Member is a chama member. Balances only move through payment recording.
type Member struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"` // E.164, +254XXXXXXXXX
	Email            string    `json:"email"`
	JoinDate         time.Time `json:"joinDate"`
	TotalContributed float64   `json:"totalContributed"`
	CurrentBalance   float64   `json:"currentBalance"` // negative = owes money
}

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

const (
	MethodMpesa        = "M-Pesa"
	MethodBankTransfer = "Bank Transfer"
	MethodCash         = "Cash"
)

type Payment struct {
	ID        string        `json:"id"`
	MemberID  string        `json:"memberId"`
	Amount    float64       `json:"amount"`
	Date      time.Time     `json:"date"`
	Status    PaymentStatus `json:"status"`
	Method    string        `json:"method"`
	Reference string        `json:"reference"`
}

type ReminderType string

const (
	ReminderPaymentDue      ReminderType = "payment_due"
	ReminderPaymentOverdue  ReminderType = "payment_overdue"
	ReminderMeetingReminder ReminderType = "meeting_reminder"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderDelivered ReminderStatus = "delivered"
)

type Reminder struct {
	ID            string         `json:"id"`
	MemberID      string         `json:"memberId"`
	Message       string         `json:"message"`
	Type          ReminderType   `json:"type"`
	Status        ReminderStatus `json:"status"`
	ScheduledDate time.Time      `json:"scheduledDate"`
	CreatedDate   time.Time      `json:"createdDate"`
}
