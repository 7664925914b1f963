package telemetry

import (
	"fmt"
)

// API is where components report what happens to them. Tests swap it for a
// Recorder to assert on breakage.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed and needs attention.
	//
	// The id names the component and method, not the failing detail, ex.
	// `http-ledger.deduct` when a deduction could not reach the ledger. Put the
	// detail in params or in the wrapped error. Ids are lowercase, with
	// underscores inside component names and dashes inside method names.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that did not break anything,
	// ex. a form endpoint answering with a non-2xx status.
	ReportWarning(id string, params ...any)

	// ReportDebug is dropped unless debug output is on.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge value at the current time, the values are
	// points over time and must not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id it reports with a namespace, usually the name
// of the package or component that owns it.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI scopes inner under namespace. Scoping a ScopedAPI again nests
// the namespaces, ex. "run: dispatcher: submit".
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
