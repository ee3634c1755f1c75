// Package ledger implements the account-ledger core: per-account
// balances, append-only transaction history, fund transfers, loan
// issuance, and monthly batch settlement. The Ledger is the single
// owner of all account state; callers only ever receive deep copies.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankledger/internal/interfaces"
	"bankledger/internal/models"
	"bankledger/internal/models/events"
)

var (
	taxRate         = decimal.RequireFromString("0.08")
	loanPaymentRate = decimal.RequireFromString("0.05")
)

// Ledger holds every account and serializes mutation per account. A
// two-account operation (transfer) takes both account locks in
// lexicographic username order so two opposite-direction transfers
// cannot deadlock each other.
type Ledger struct {
	accountsMu sync.RWMutex
	accounts   map[string]*models.Account

	muMap map[string]*sync.Mutex // one mutex per account
	mapMu sync.Mutex             // protects muMap itself

	nextTxID atomic.Int64

	publisher interfaces.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// New creates an empty ledger. The publisher may be nil; events are
// then silently skipped.
func New(log *zap.Logger, publisher interfaces.EventPublisher) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		accounts:  make(map[string]*models.Account),
		muMap:     make(map[string]*sync.Mutex),
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (l *Ledger) accountLock(username string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[username]; !exists {
		l.muMap[username] = &sync.Mutex{}
	}
	return l.muMap[username]
}

// lockPair locks both accounts' mutexes in lexicographic order and
// returns the matching unlock. A self-transfer locks once.
func (l *Ledger) lockPair(a, b string) func() {
	if a == b {
		m := l.accountLock(a)
		m.Lock()
		return m.Unlock
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	fm := l.accountLock(first)
	sm := l.accountLock(second)
	fm.Lock()
	sm.Lock()
	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}

// lookup must be called with the account's mutex held.
func (l *Ledger) lookup(username string) *models.Account {
	l.accountsMu.RLock()
	defer l.accountsMu.RUnlock()
	return l.accounts[username]
}

func (l *Ledger) newTransaction(kind models.TransactionKind, amount decimal.Decimal) models.Transaction {
	return models.Transaction{
		ID:     l.nextTxID.Add(1),
		Kind:   kind,
		Amount: amount,
		Date:   models.NewDate(l.now()),
	}
}

func (l *Ledger) publish(topic string, event any) {
	if l.publisher == nil {
		return
	}
	// Best effort: a broker failure never rolls back ledger state.
	if err := l.publisher.Publish(topic, event); err != nil {
		l.log.Warn("event publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

// CreateAccount registers a new account. A positive opening balance is
// recorded as an initial deposit transaction so the balance invariant
// (balance == sum of transaction amounts) holds from creation.
func (l *Ledger) CreateAccount(username string, opening decimal.Decimal) (models.Account, error) {
	if strings.TrimSpace(username) == "" {
		return models.Account{}, errors.New("username required")
	}
	if opening.IsNegative() {
		return models.Account{}, ErrInvalidAmount
	}

	l.accountsMu.Lock()
	defer l.accountsMu.Unlock()

	if _, exists := l.accounts[username]; exists {
		return models.Account{}, ErrAccountExists
	}

	a := &models.Account{
		Username:       username,
		Balance:        decimal.Zero,
		SettledPeriods: make(map[string]bool),
	}
	if opening.IsPositive() {
		tx := l.newTransaction(models.KindDeposit, opening)
		tx.Description = "initial deposit"
		a.Balance = a.Balance.Add(opening)
		a.Transactions = append(a.Transactions, tx)
	}
	l.accounts[username] = a

	l.log.Info("account created",
		zap.String("username", username),
		zap.String("opening_balance", opening.StringFixed(2)))
	return a.Clone(), nil
}

// GetAccount returns a deep snapshot of one account's current state.
func (l *Ledger) GetAccount(username string) (models.Account, error) {
	m := l.accountLock(username)
	m.Lock()
	defer m.Unlock()

	a := l.lookup(username)
	if a == nil {
		return models.Account{}, ErrAccountNotFound
	}
	return a.Clone(), nil
}

// Deposit credits the account and appends a deposit transaction.
func (l *Ledger) Deposit(username string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}

	m := l.accountLock(username)
	m.Lock()
	defer m.Unlock()

	a := l.lookup(username)
	if a == nil {
		return models.Account{}, ErrAccountNotFound
	}

	tx := l.newTransaction(models.KindDeposit, amount)
	tx.Description = "deposit"
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, tx)

	l.log.Info("deposit",
		zap.String("username", username),
		zap.String("amount", amount.StringFixed(2)))
	return a.Clone(), nil
}

// Transfer moves amount from source to dest atomically: both balance
// changes and both transaction records become visible at one instant,
// or, on any precondition failure, nothing changes at all. Total
// balance across the two accounts is conserved. A self-transfer is
// permitted and nets to zero while still recording both legs.
func (l *Ledger) Transfer(source, dest string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}

	unlock := l.lockPair(source, dest)
	defer unlock()

	src := l.lookup(source)
	if src == nil {
		return models.Account{}, ErrAccountNotFound
	}
	dst := l.lookup(dest)
	if dst == nil {
		return models.Account{}, ErrRecipientNotFound
	}
	if src.Balance.LessThan(amount) {
		return models.Account{}, ErrInsufficientFunds
	}

	out := l.newTransaction(models.KindTransferOut, amount.Neg())
	out.Counterparty = dest
	src.Balance = src.Balance.Add(out.Amount)
	src.Transactions = append(src.Transactions, out)

	in := l.newTransaction(models.KindTransferIn, amount)
	in.Counterparty = source
	dst.Balance = dst.Balance.Add(in.Amount)
	dst.Transactions = append(dst.Transactions, in)

	l.log.Info("transfer",
		zap.String("source", source),
		zap.String("dest", dest),
		zap.String("amount", amount.StringFixed(2)))
	l.publish(events.TopicTransferCompleted, events.TransferCompleted{
		EventID:     uuid.New().String(),
		FromAccount: source,
		ToAccount:   dest,
		Amount:      amount,
		OccurredAt:  l.now(),
	})
	return src.Clone(), nil
}

// ApplyLoan credits the principal to the account and opens a loan with
// a fixed monthly payment of 5% of the principal. The payment is
// computed once here and never recalculated as the loan amortizes.
// There is no cap on total outstanding exposure.
func (l *Ledger) ApplyLoan(username string, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}

	m := l.accountLock(username)
	m.Lock()
	defer m.Unlock()

	a := l.lookup(username)
	if a == nil {
		return models.Account{}, ErrAccountNotFound
	}

	monthly := amount.Mul(loanPaymentRate).Round(2)
	loan := models.Loan{
		ID:             uuid.New().String(),
		Principal:      amount,
		MonthlyPayment: monthly,
		Remaining:      amount,
		IssuedAt:       models.NewDate(l.now()),
	}

	tx := l.newTransaction(models.KindLoanDisbursement, amount)
	tx.Description = fmt.Sprintf("loan approved, monthly payment %s", monthly.StringFixed(2))
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, tx)
	a.Loans = append(a.Loans, loan)

	l.log.Info("loan issued",
		zap.String("username", username),
		zap.String("loan_id", loan.ID),
		zap.String("principal", amount.StringFixed(2)),
		zap.String("monthly_payment", monthly.StringFixed(2)))
	l.publish(events.TopicLoanIssued, events.LoanIssued{
		EventID:        uuid.New().String(),
		Account:        username,
		LoanID:         loan.ID,
		Principal:      amount,
		MonthlyPayment: monthly,
		OccurredAt:     l.now(),
	})
	return a.Clone(), nil
}

// ProcessMonthlyCharges applies one billing period's charges as a
// single atomic step: an 8% tax on the current balance, then for each
// active loan in creation order a payment of min(monthlyPayment,
// remaining). Settlement is mandatory and never fails on funds; the
// balance may go negative. Loans that reach exactly zero remaining are
// dropped from the active set.
//
// The period key (YYYY-MM) guards against double-charging: settling an
// already-settled period returns ErrPeriodSettled with no mutation.
func (l *Ledger) ProcessMonthlyCharges(username, period string) (models.Account, error) {
	if _, err := time.Parse("2006-01", period); err != nil {
		return models.Account{}, ErrInvalidPeriod
	}

	m := l.accountLock(username)
	m.Lock()
	defer m.Unlock()

	a := l.lookup(username)
	if a == nil {
		return models.Account{}, ErrAccountNotFound
	}
	if a.SettledPeriods[period] {
		return models.Account{}, ErrPeriodSettled
	}

	tax := a.Balance.Mul(taxRate).Round(2)
	taxTx := l.newTransaction(models.KindTax, tax.Neg())
	taxTx.Description = "monthly tax (8%)"
	a.Balance = a.Balance.Add(taxTx.Amount)
	a.Transactions = append(a.Transactions, taxTx)

	loansPaid := decimal.Zero
	active := a.Loans[:0]
	for i := range a.Loans {
		loan := a.Loans[i]
		payment := decimal.Min(loan.MonthlyPayment, loan.Remaining)
		a.Balance = a.Balance.Sub(payment)
		loan.Remaining = loan.Remaining.Sub(payment)
		if payment.IsPositive() {
			tx := l.newTransaction(models.KindLoanPayment, payment.Neg())
			tx.LoanID = loan.ID
			tx.Description = "loan payment"
			a.Transactions = append(a.Transactions, tx)
			loansPaid = loansPaid.Add(payment)
		}
		if loan.Remaining.IsPositive() {
			active = append(active, loan)
		}
	}
	a.Loans = active
	if a.SettledPeriods == nil {
		a.SettledPeriods = make(map[string]bool)
	}
	a.SettledPeriods[period] = true

	l.log.Info("monthly settlement",
		zap.String("username", username),
		zap.String("period", period),
		zap.String("tax", tax.StringFixed(2)),
		zap.String("loans_paid", loansPaid.StringFixed(2)),
		zap.String("balance", a.Balance.StringFixed(2)))
	l.publish(events.TopicSettlementCompleted, events.SettlementCompleted{
		EventID:    uuid.New().String(),
		Account:    username,
		Period:     period,
		Tax:        tax,
		LoansPaid:  loansPaid,
		OccurredAt: l.now(),
	})
	return a.Clone(), nil
}

// GenerateStatement returns the account's most recent transactions,
// newest first, capped at 10. The stored history is left intact; the
// statement is a bounded projection, not a truncation.
func (l *Ledger) GenerateStatement(username string) ([]models.Transaction, error) {
	const statementLimit = 10

	m := l.accountLock(username)
	m.Lock()
	defer m.Unlock()

	a := l.lookup(username)
	if a == nil {
		return nil, ErrAccountNotFound
	}

	n := len(a.Transactions)
	count := n
	if count > statementLimit {
		count = statementLimit
	}
	out := make([]models.Transaction, 0, count)
	for i := n - 1; i >= n-count; i-- {
		out = append(out, a.Transactions[i])
	}
	return out, nil
}

// Snapshot exports the whole ledger for persistence. Each account is
// copied under its own lock, so every account is internally
// consistent.
func (l *Ledger) Snapshot() models.Snapshot {
	l.accountsMu.RLock()
	usernames := make([]string, 0, len(l.accounts))
	for u := range l.accounts {
		usernames = append(usernames, u)
	}
	l.accountsMu.RUnlock()

	snap := models.Snapshot{NextTransactionID: l.nextTxID.Load()}
	for _, u := range usernames {
		m := l.accountLock(u)
		m.Lock()
		if a := l.lookup(u); a != nil {
			snap.Accounts = append(snap.Accounts, a.Clone())
		}
		m.Unlock()
	}
	return snap
}

// Restore replaces all ledger state from a snapshot and resumes the
// transaction id counter past every restored id.
func (l *Ledger) Restore(snap models.Snapshot) {
	l.accountsMu.Lock()
	defer l.accountsMu.Unlock()

	l.accounts = make(map[string]*models.Account, len(snap.Accounts))
	maxID := snap.NextTransactionID
	for i := range snap.Accounts {
		a := snap.Accounts[i].Clone()
		if a.SettledPeriods == nil {
			a.SettledPeriods = make(map[string]bool)
		}
		for _, tx := range a.Transactions {
			if tx.ID > maxID {
				maxID = tx.ID
			}
		}
		l.accounts[a.Username] = &a
	}
	l.nextTxID.Store(maxID)
}
