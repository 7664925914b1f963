package testutil

import (
	"database/sql"
	"testing"

	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/db"
)

type ServiceParams struct {
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB        *sql.DB
	Qry       *db.Queries
	Telemetry *telemetry.Recorder
}

// SetupService opens a database with the schema applied and a telemetry
// recorder, both are released when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	database, err := db.OpenDB(dbpath, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	return ServiceResult{
		DB:        database,
		Qry:       db.New(database),
		Telemetry: &telemetry.Recorder{},
	}
}
