// Package events defines the payloads published after successful
// ledger mutations. Consumers downstream (notifications, audit) read
// these off the broker; the ledger never depends on them being
// delivered.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicTransferCompleted   = "transfer_completed"
	TopicLoanIssued          = "loan_issued"
	TopicSettlementCompleted = "settlement_completed"
)

type TransferCompleted struct {
	EventID     string          `json:"event_id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type LoanIssued struct {
	EventID        string          `json:"event_id"`
	Account        string          `json:"account"`
	LoanID         string          `json:"loan_id"`
	Principal      decimal.Decimal `json:"principal"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type SettlementCompleted struct {
	EventID    string          `json:"event_id"`
	Account    string          `json:"account"`
	Period     string          `json:"period"`
	Tax        decimal.Decimal `json:"tax"`
	LoansPaid  decimal.Decimal `json:"loans_paid"`
	OccurredAt time.Time       `json:"occurred_at"`
}
