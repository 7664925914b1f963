package main

import (
	"context"
	"log/slog"
	"os"

	"formsim-backend/cmd/formsim/commands"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/lib/serviceutil"
)

func main() {
	ctx := context.Background()

	otel, err := telemetry.SetupOtelFromEnv(ctx, "formsim")
	if err != nil {
		serviceutil.Fatal("failed to setup otel", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	err = commands.ExecuteContext(ctx)

	shutdownErr := otel.Shutdown(ctx)
	if shutdownErr != nil {
		slog.Warn("failed to shutdown otel", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
