// Package postgres persists ledger snapshots in PostgreSQL. A save
// rewrites the full snapshot in one SQL transaction; the database is a
// restart checkpoint, not the authoritative store.
//
// Expected schema:
//
//	CREATE TABLE snapshot_meta (id int PRIMARY KEY, next_transaction_id bigint NOT NULL);
//	CREATE TABLE accounts (username text PRIMARY KEY, balance numeric NOT NULL);
//	CREATE TABLE transactions (id bigint PRIMARY KEY, username text NOT NULL,
//	    kind text NOT NULL, amount numeric NOT NULL, date date NOT NULL,
//	    counterparty text NOT NULL DEFAULT '', loan_id text NOT NULL DEFAULT '',
//	    description text NOT NULL DEFAULT '');
//	CREATE TABLE loans (id text PRIMARY KEY, username text NOT NULL,
//	    principal numeric NOT NULL, monthly_payment numeric NOT NULL,
//	    remaining numeric NOT NULL, issued_at date NOT NULL);
//	CREATE TABLE settled_periods (username text NOT NULL, period text NOT NULL,
//	    PRIMARY KEY (username, period));
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"bankledger/internal/interfaces"
	"bankledger/internal/models"
)

type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

// Open connects with the given DSN and verifies the connection.
func Open(dsn string) (*PostgresSnapshotStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresSnapshotStore(db), nil
}

func (p *PostgresSnapshotStore) Close() error {
	return p.db.Close()
}

func (p *PostgresSnapshotStore) Save(ctx context.Context, snap models.Snapshot) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, table := range []string{"settled_periods", "loans", "transactions", "accounts", "snapshot_meta"} {
		if _, err = dbTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	const metaQuery = `INSERT INTO snapshot_meta (id, next_transaction_id) VALUES (1, $1)`
	if _, err = dbTx.ExecContext(ctx, metaQuery, snap.NextTransactionID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	const accountQuery = `INSERT INTO accounts (username, balance) VALUES ($1, $2)`
	const txQuery = `INSERT INTO transactions (id, username, kind, amount, date, counterparty, loan_id, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const loanQuery = `INSERT INTO loans (id, username, principal, monthly_payment, remaining, issued_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	const periodQuery = `INSERT INTO settled_periods (username, period) VALUES ($1, $2)`

	for _, a := range snap.Accounts {
		if _, err = dbTx.ExecContext(ctx, accountQuery, a.Username, a.Balance); err != nil {
			return fmt.Errorf("save account %s: %w", a.Username, err)
		}
		for _, tx := range a.Transactions {
			_, err = dbTx.ExecContext(ctx, txQuery,
				tx.ID, a.Username, string(tx.Kind), tx.Amount, tx.Date.Time,
				tx.Counterparty, tx.LoanID, tx.Description)
			if err != nil {
				return fmt.Errorf("save transaction %d: %w", tx.ID, err)
			}
		}
		for _, loan := range a.Loans {
			_, err = dbTx.ExecContext(ctx, loanQuery,
				loan.ID, a.Username, loan.Principal, loan.MonthlyPayment,
				loan.Remaining, loan.IssuedAt.Time)
			if err != nil {
				return fmt.Errorf("save loan %s: %w", loan.ID, err)
			}
		}
		for period := range a.SettledPeriods {
			if _, err = dbTx.ExecContext(ctx, periodQuery, a.Username, period); err != nil {
				return fmt.Errorf("save settled period %s: %w", period, err)
			}
		}
	}

	return dbTx.Commit()
}

func (p *PostgresSnapshotStore) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot

	const metaQuery = `SELECT next_transaction_id FROM snapshot_meta WHERE id = 1`
	err := p.db.QueryRowContext(ctx, metaQuery).Scan(&snap.NextTransactionID)
	if err == sql.ErrNoRows {
		return models.Snapshot{}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load meta: %w", err)
	}

	byUser := make(map[string]*models.Account)

	const accountQuery = `SELECT username, balance FROM accounts ORDER BY username`
	rows, err := p.db.QueryContext(ctx, accountQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()
	var order []string
	for rows.Next() {
		a := &models.Account{SettledPeriods: make(map[string]bool)}
		if err := rows.Scan(&a.Username, &a.Balance); err != nil {
			return models.Snapshot{}, err
		}
		byUser[a.Username] = a
		order = append(order, a.Username)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, err
	}

	const txQuery = `SELECT id, username, kind, amount, date, counterparty, loan_id, description
	FROM transactions ORDER BY id`
	txRows, err := p.db.QueryContext(ctx, txQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var (
			tx       models.Transaction
			username string
			kind     string
			date     time.Time
		)
		err := txRows.Scan(&tx.ID, &username, &kind, &tx.Amount, &date,
			&tx.Counterparty, &tx.LoanID, &tx.Description)
		if err != nil {
			return models.Snapshot{}, err
		}
		tx.Kind = models.TransactionKind(kind)
		tx.Date = models.NewDate(date)
		if a, ok := byUser[username]; ok {
			a.Transactions = append(a.Transactions, tx)
		}
	}
	if err := txRows.Err(); err != nil {
		return models.Snapshot{}, err
	}

	// Settlement walks loans in creation order; issued_at then id
	// reproduces it.
	const loanQuery = `SELECT id, username, principal, monthly_payment, remaining, issued_at
	FROM loans ORDER BY issued_at, id`
	loanRows, err := p.db.QueryContext(ctx, loanQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load loans: %w", err)
	}
	defer loanRows.Close()
	for loanRows.Next() {
		var (
			loan     models.Loan
			username string
			issued   time.Time
		)
		err := loanRows.Scan(&loan.ID, &username, &loan.Principal,
			&loan.MonthlyPayment, &loan.Remaining, &issued)
		if err != nil {
			return models.Snapshot{}, err
		}
		loan.IssuedAt = models.NewDate(issued)
		if a, ok := byUser[username]; ok {
			a.Loans = append(a.Loans, loan)
		}
	}
	if err := loanRows.Err(); err != nil {
		return models.Snapshot{}, err
	}

	const periodQuery = `SELECT username, period FROM settled_periods`
	periodRows, err := p.db.QueryContext(ctx, periodQuery)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load settled periods: %w", err)
	}
	defer periodRows.Close()
	for periodRows.Next() {
		var username, period string
		if err := periodRows.Scan(&username, &period); err != nil {
			return models.Snapshot{}, err
		}
		if a, ok := byUser[username]; ok {
			a.SettledPeriods[period] = true
		}
	}
	if err := periodRows.Err(); err != nil {
		return models.Snapshot{}, err
	}

	for _, username := range order {
		snap.Accounts = append(snap.Accounts, *byUser[username])
	}
	return snap, nil
}

var _ interfaces.SnapshotStore = (*PostgresSnapshotStore)(nil)
