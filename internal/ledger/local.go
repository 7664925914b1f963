package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"formsim-backend/internal/components/chrono"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/db"
)

const (
	report_local_ledger_deduct = "local-ledger.deduct"
	report_local_ledger_grant  = "local-ledger.grant"

	DefaultAccount = "default"
)

// LocalLedger keeps a credit account in sqlite.
type LocalLedger struct {
	account string
	qry     *db.Queries
	makeTx  db.MakeTx
	time    chrono.TimeAPI
	tel     telemetry.API
}

type LocalLedgerOptions struct {
	// Account defaults to DefaultAccount.
	Account string
	Time    chrono.TimeAPI
}

func NewLocalLedger(ctx context.Context, database *sql.DB, opts LocalLedgerOptions, tel telemetry.API) (LocalLedger, error) {
	account := opts.Account
	if account == "" {
		account = DefaultAccount
	}
	timeAPI := opts.Time
	if timeAPI == nil {
		timeAPI = chrono.NewStandardTime()
	}

	qry := db.New(database)
	err := qry.EnsureCreditAccount(ctx, account)
	if err != nil {
		return LocalLedger{}, fmt.Errorf("create credit account: %w", err)
	}

	return LocalLedger{
		account: account,
		qry:     qry,
		makeTx:  db.NewMakeTx(database),
		time:    timeAPI,
		tel:     tel,
	}, nil
}

// apply adds delta to the account and logs it in a single transaction.
func (l LocalLedger) apply(ctx context.Context, delta int64, reason string) (int64, error) {
	tx, discard, commit, err := l.makeTx(ctx)
	if err != nil {
		return 0, err
	}
	defer discard()

	credits, err := tx.GetCredits(ctx, l.account)
	if err != nil {
		return 0, err
	}
	next := credits + delta
	if next < 0 {
		return credits, fmt.Errorf("%w: %w: have %d, need %d", ErrLedger, ErrInsufficientCredits, credits, -delta)
	}

	err = tx.SetCredits(ctx, db.SetCreditsParams{Credits: next, ID: l.account})
	if err != nil {
		return 0, err
	}
	err = tx.CreateCreditLog(ctx, db.CreateCreditLogParams{
		AccountID: l.account,
		Delta:     delta,
		Balance:   next,
		Reason:    reason,
		CreatedAt: l.time.Now().Unix(),
	})
	if err != nil {
		return 0, err
	}
	return next, commit()
}

func (l LocalLedger) Deduct(ctx context.Context, count int) (Balance, error) {
	if count <= 0 {
		return Balance{}, fmt.Errorf("%w: deduct count must be positive, got %d", ErrLedger, count)
	}
	credits, err := l.apply(ctx, -int64(count), fmt.Sprintf("form automation submission (x%d)", count))
	if errors.Is(err, ErrInsufficientCredits) {
		return Balance{Credits: credits}, err
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLedger, err)
		l.tel.ReportBroken(report_local_ledger_deduct, err, count)
		return Balance{}, err
	}
	return Balance{Credits: credits}, nil
}

// Grant adds credits to the account.
func (l LocalLedger) Grant(ctx context.Context, amount int64, reason string) (Balance, error) {
	if amount <= 0 {
		return Balance{}, fmt.Errorf("%w: grant amount must be positive, got %d", ErrLedger, amount)
	}
	credits, err := l.apply(ctx, amount, reason)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLedger, err)
		l.tel.ReportBroken(report_local_ledger_grant, err, amount)
		return Balance{}, err
	}
	return Balance{Credits: credits}, nil
}

func (l LocalLedger) Balance(ctx context.Context) (Balance, error) {
	credits, err := l.qry.GetCredits(ctx, l.account)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	return Balance{Credits: credits}, nil
}

type LogEntry struct {
	Delta   int64
	Balance int64
	Reason  string
	Time    time.Time
}

// Logs returns the most recent credit changes, newest first.
func (l LocalLedger) Logs(ctx context.Context, limit int) ([]LogEntry, error) {
	rows, err := l.qry.ListCreditLogs(ctx, db.ListCreditLogsParams{
		AccountID: l.account,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	out := make([]LogEntry, len(rows))
	for i, r := range rows {
		out[i] = LogEntry{
			Delta:   r.Delta,
			Balance: r.Balance,
			Reason:  r.Reason,
			Time:    time.Unix(r.CreatedAt, 0),
		}
	}
	return out, nil
}
