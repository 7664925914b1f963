package db

import (
	"context"
	"database/sql"
)

const ensureCreditAccount = `insert into credit_account(id, credits) values (?, 0)
on conflict(id) do nothing`

func (q *Queries) EnsureCreditAccount(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, ensureCreditAccount, id)
	return err
}

const getCredits = `select credits from credit_account where id = ?`

func (q *Queries) GetCredits(ctx context.Context, id string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getCredits, id)
	var credits int64
	err := row.Scan(&credits)
	return credits, err
}

const setCredits = `update credit_account set credits = ? where id = ?`

type SetCreditsParams struct {
	Credits int64
	ID      string
}

func (q *Queries) SetCredits(ctx context.Context, arg SetCreditsParams) error {
	_, err := q.db.ExecContext(ctx, setCredits, arg.Credits, arg.ID)
	return err
}

const createCreditLog = `insert into credit_log(account_id, delta, balance, reason, created_at)
values (?, ?, ?, ?, ?)`

type CreateCreditLogParams struct {
	AccountID string
	Delta     int64
	Balance   int64
	Reason    string
	CreatedAt int64
}

func (q *Queries) CreateCreditLog(ctx context.Context, arg CreateCreditLogParams) error {
	_, err := q.db.ExecContext(
		ctx, createCreditLog,
		arg.AccountID,
		arg.Delta,
		arg.Balance,
		arg.Reason,
		arg.CreatedAt,
	)
	return err
}

const listCreditLogs = `select id, account_id, delta, balance, reason, created_at from credit_log
where account_id = ?
order by id desc
limit ?`

type ListCreditLogsParams struct {
	AccountID string
	Limit     int64
}

func (q *Queries) ListCreditLogs(ctx context.Context, arg ListCreditLogsParams) ([]CreditLog, error) {
	rows, err := q.db.QueryContext(ctx, listCreditLogs, arg.AccountID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CreditLog
	for rows.Next() {
		var i CreditLog
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Delta,
			&i.Balance,
			&i.Reason,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createRun = `insert into run(id, form_title, action_url, target, state, started_at)
values (?, ?, ?, ?, ?, ?)`

type CreateRunParams struct {
	ID        string
	FormTitle string
	ActionUrl string
	Target    int64
	State     string
	StartedAt int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(
		ctx, createRun,
		arg.ID,
		arg.FormTitle,
		arg.ActionUrl,
		arg.Target,
		arg.State,
		arg.StartedAt,
	)
	return err
}

const finishRun = `update run set state = ?, attempted = ?, succeeded = ?, finished_at = ?
where id = ?`

type FinishRunParams struct {
	State      string
	Attempted  int64
	Succeeded  int64
	FinishedAt sql.NullInt64
	ID         string
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) error {
	_, err := q.db.ExecContext(
		ctx, finishRun,
		arg.State,
		arg.Attempted,
		arg.Succeeded,
		arg.FinishedAt,
		arg.ID,
	)
	return err
}

const getRun = `select id, form_title, action_url, target, state, attempted, succeeded, started_at, finished_at
from run where id = ?`

func (q *Queries) GetRun(ctx context.Context, id string) (Run, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.FormTitle,
		&i.ActionUrl,
		&i.Target,
		&i.State,
		&i.Attempted,
		&i.Succeeded,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const createRunLog = `insert into run_log(run_id, entry_id, status, message, created_at)
values (?, ?, ?, ?, ?)`

type CreateRunLogParams struct {
	RunID     string
	EntryID   int64
	Status    string
	Message   string
	CreatedAt int64
}

func (q *Queries) CreateRunLog(ctx context.Context, arg CreateRunLogParams) error {
	_, err := q.db.ExecContext(
		ctx, createRunLog,
		arg.RunID,
		arg.EntryID,
		arg.Status,
		arg.Message,
		arg.CreatedAt,
	)
	return err
}

const listRunLogs = `select run_id, entry_id, status, message, created_at from run_log
where run_id = ?
order by entry_id desc`

// ListRunLogs returns the newest entry first.
func (q *Queries) ListRunLogs(ctx context.Context, runID string) ([]RunLog, error) {
	rows, err := q.db.QueryContext(ctx, listRunLogs, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RunLog
	for rows.Next() {
		var i RunLog
		if err := rows.Scan(
			&i.RunID,
			&i.EntryID,
			&i.Status,
			&i.Message,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
