package commands

import (
	"context"
	"database/sql"

	"formsim-backend/internal/db"
	"formsim-backend/internal/ledger"
)

func openDatabase(path, token string) (*sql.DB, error) {
	if path == "" {
		path = dbPath
	}
	if token == "" {
		token = dbToken
	}
	return db.OpenDB(path, token)
}

func openLocalLedger(ctx context.Context, database *sql.DB) (ledger.LocalLedger, error) {
	return ledger.NewLocalLedger(ctx, database, ledger.LocalLedgerOptions{}, tel)
}
