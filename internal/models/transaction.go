package models

import "github.com/shopspring/decimal"

// TransactionKind classifies a ledger transaction.
type TransactionKind string

const (
	KindDeposit          TransactionKind = "deposit"
	KindTransferIn       TransactionKind = "transfer_in"
	KindTransferOut      TransactionKind = "transfer_out"
	KindLoanDisbursement TransactionKind = "loan_disbursement"
	KindTax              TransactionKind = "tax"
	KindLoanPayment      TransactionKind = "loan_payment"
)

// Transaction is an immutable record of one signed balance change.
// The amount carries the sign: credits are positive, debits negative,
// so an account balance is always the sum of its transaction amounts.
// IDs come from a single ledger-wide monotonic counter and are never
// reused or reordered once appended.
type Transaction struct {
	ID           int64           `json:"id"`
	Kind         TransactionKind `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Date         Date            `json:"date"`
	Counterparty string          `json:"counterparty,omitempty"` // transfer_in / transfer_out only
	LoanID       string          `json:"loan_id,omitempty"`      // loan_payment only
	Description  string          `json:"description,omitempty"`
}
