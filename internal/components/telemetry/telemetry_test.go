package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("dispatcher", rec)

	scoped.ReportBroken("ledger.deduct", "boom")
	scoped.ReportCount("submissions", 3)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "dispatcher: ledger.deduct", broken[0].ID)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	counts := rec.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)
}
