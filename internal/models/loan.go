package models

import "github.com/shopspring/decimal"

// Loan is an amortizing liability on one account. The monthly payment
// is fixed at issuance (5% of principal) and never recalculated, so a
// loan amortizes in at most 20 periods with a final truncated payment.
// Remaining stays within [0, Principal]; the ledger drops the loan from
// the active set exactly when it reaches zero.
type Loan struct {
	ID             string          `json:"id"`
	Principal      decimal.Decimal `json:"principal"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Remaining      decimal.Decimal `json:"remaining"`
	IssuedAt       Date            `json:"issued_at"`
}
