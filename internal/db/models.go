package db

import "database/sql"

type CreditAccount struct {
	ID      string
	Credits int64
}

type CreditLog struct {
	ID        int64
	AccountID string
	Delta     int64
	Balance   int64
	Reason    string
	CreatedAt int64
}

type Run struct {
	ID         string
	FormTitle  string
	ActionUrl  string
	Target     int64
	State      string
	Attempted  int64
	Succeeded  int64
	StartedAt  int64
	FinishedAt sql.NullInt64
}

type RunLog struct {
	RunID     string
	EntryID   int64
	Status    string
	Message   string
	CreatedAt int64
}
