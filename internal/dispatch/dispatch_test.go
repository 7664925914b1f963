package dispatch

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"formsim-backend/internal/components/chrono"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/form"
	"formsim-backend/internal/ledger"
	"formsim-backend/internal/planner"
	"formsim-backend/internal/weights"
	"formsim-backend/lib/testutil"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type endpoint struct {
	mutex  sync.Mutex
	bodies []url.Values
	server *httptest.Server
}

func newEndpoint(t testing.TB) *endpoint {
	e := &endpoint{}
	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("content-type"))
		require.NoError(t, r.ParseForm())

		e.mutex.Lock()
		e.bodies = append(e.bodies, r.PostForm)
		e.mutex.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(e.server.Close)
	return e
}

func (e *endpoint) received() []url.Values {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]url.Values(nil), e.bodies...)
}

type fakeLedger struct {
	counts  []int
	credits int64
	fail    bool
}

func (l *fakeLedger) Deduct(ctx context.Context, count int) (ledger.Balance, error) {
	if l.fail {
		return ledger.Balance{}, ledger.ErrLedger
	}
	l.counts = append(l.counts, count)
	l.credits -= int64(count)
	return ledger.Balance{Credits: l.credits}, nil
}

type recorder struct {
	entries  []LogEntry
	progress [][2]int
	onLog    func(LogEntry)
	onProg   func(done, total int)
}

func (r *recorder) OnLog(entry LogEntry) {
	r.entries = append(r.entries, entry)
	if r.onLog != nil {
		r.onLog(entry)
	}
}

func (r *recorder) OnProgress(done, total int) {
	r.progress = append(r.progress, [2]int{done, total})
	if r.onProg != nil {
		r.onProg(done, total)
	}
}

func (r *recorder) last() LogEntry {
	return r.entries[len(r.entries)-1]
}

func (r *recorder) count(status Status) int {
	n := 0
	for _, e := range r.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

func testForm(actionURL string) form.ParsedForm {
	columns := []form.GridDimension{{Label: "A", ID: "A"}, {Label: "B", ID: "B"}, {Label: "C", ID: "C"}}
	return form.ParsedForm{
		Title:     "Survey",
		ActionURL: actionURL,
		Fbzx:      "-123",
		Items: []form.FormItem{
			{ID: "gender", Type: form.MULTIPLE_CHOICE, SubmissionID: "100", Options: []form.ChoiceOption{
				{Label: "Female", ID: "Female"}, {Label: "Male", ID: "Male"},
			}},
			{ID: "p2", Type: form.SECTION_HEADER, IsPageBreak: true},
			{ID: "hobbies", Type: form.CHECKBOXES, SubmissionID: "200", Options: []form.ChoiceOption{
				{Label: "Chess", ID: "Chess"}, {Label: "Golf", ID: "Golf"},
			}},
			{ID: "rank", Type: form.MULTIPLE_CHOICE_GRID, SubmissionID: "301", LimitOneResponsePerColumn: true,
				Columns: columns,
				Rows: []form.GridDimension{
					{Label: "Speed", ID: "301"}, {Label: "Price", ID: "302"}, {Label: "Support", ID: "303"},
				},
			},
			{ID: "p3", Type: form.SECTION_HEADER, IsPageBreak: true},
			{ID: "notes", Type: form.PARAGRAPH, SubmissionID: "400"},
		},
	}
}

type fixture struct {
	endpoint   *endpoint
	ledger     *fakeLedger
	sink       *recorder
	clock      *chrono.Instant
	dispatcher *Dispatcher
	job        Job
}

func setup(t testing.TB, n int) fixture {
	e := newEndpoint(t)
	l := &fakeLedger{credits: 100}
	sink := &recorder{}
	clock := &chrono.Instant{}

	d, err := New(Options{
		Ledger: l,
		Sink:   sink,
		Client: resty.New(),
		Time:   clock,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	parsed := testForm(e.server.URL + "/formResponse")
	model := weights.NewModel(parsed)
	rng := rand.New(rand.NewSource(3))
	schedule, err := planner.Build(rng, parsed, model, n, planner.Options{})
	require.NoError(t, err)

	return fixture{
		endpoint:   e,
		ledger:     l,
		sink:       sink,
		clock:      clock,
		dispatcher: d,
		job: Job{
			Form:     parsed,
			Schedule: schedule,
			Count:    n,
			LimitOne: map[string]bool{"rank": model.LimitOne("rank")},
			Rand:     rng,
		},
	}
}

func TestRunCompletes(t *testing.T) {
	f := setup(t, 12)

	result, err := f.dispatcher.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.Equal(t, Result{State: StateCompleted, Attempted: 12, Succeeded: 12, Deducted: 12}, result)
	require.Equal(t, StateCompleted, f.dispatcher.State())

	bodies := f.endpoint.received()
	require.Len(t, bodies, 12)
	genders := map[string]int{}
	for i, body := range bodies {
		require.Equal(t, "0,1,2", body.Get(KeyPageHistory))
		require.Equal(t, "-123", body.Get(KeyFbzx))
		require.Equal(t, "[]", body.Get(KeyDraftResponse))
		require.Equal(t, []string{"N/A"}, body["entry.400"])

		require.Equal(t, f.job.Schedule.At("gender", i)[0], body.Get("entry.100"))
		genders[body.Get("entry.100")]++
		require.Equal(t, []string(f.job.Schedule.At("hobbies", i)), body["entry.200"])

		columns := []string{body.Get("entry.301"), body.Get("entry.302"), body.Get("entry.303")}
		sort.Strings(columns)
		require.Equal(t, []string{"A", "B", "C"}, columns)
	}
	require.Equal(t, map[string]int{"Female": 6, "Male": 6}, genders)

	require.Equal(t, []int{5, 5, 2}, f.ledger.counts)
	require.Len(t, f.clock.Waits, 11)
	for _, w := range f.clock.Waits {
		require.Equal(t, DefaultPacing, w)
	}

	require.Equal(t, [2]int{12, 12}, f.sink.progress[len(f.sink.progress)-1])
	require.Equal(t, StatusInfo, f.sink.entries[0].Status)
	require.Equal(t, StatusInfo, f.sink.last().Status)
	require.Equal(t, 12, f.sink.count(StatusSuccess))
	for i, entry := range f.sink.entries {
		require.Equal(t, i+1, entry.ID)
	}
}

func TestRunStop(t *testing.T) {
	f := setup(t, 10)
	token := NewCancelToken()
	f.sink.onProg = func(done, total int) {
		if done == 3 {
			token.Stop()
		}
	}

	result, err := f.dispatcher.Run(context.Background(), f.job, token)
	require.NoError(t, err)
	require.Equal(t, StateStopped, result.State)
	require.Equal(t, 3, result.Attempted)
	require.Len(t, f.endpoint.received(), 3)

	require.Equal(t, StatusStopped, f.sink.last().Status)
	require.Equal(t, 1, f.sink.count(StatusStopped))
	require.Equal(t, []int{3}, f.ledger.counts)
	require.Len(t, f.clock.Waits, 2)
}

func TestRunStoppedBeforeStart(t *testing.T) {
	f := setup(t, 4)
	token := NewCancelToken()
	token.Stop()
	token.Stop()

	result, err := f.dispatcher.Run(context.Background(), f.job, token)
	require.NoError(t, err)
	require.Equal(t, StateStopped, result.State)
	require.Zero(t, result.Attempted)
	require.Empty(t, f.endpoint.received())
	require.Empty(t, f.ledger.counts)
	require.Equal(t, StatusStopped, f.sink.last().Status)
}

func TestRunWakesEarlyOnStop(t *testing.T) {
	f := setup(t, 3)
	d, err := New(Options{
		Sink:   f.sink,
		Client: resty.New(),
		Pacing: time.Hour,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	token := NewCancelToken()
	f.sink.onLog = func(entry LogEntry) {
		if entry.Status == StatusSuccess {
			go func() {
				time.Sleep(10 * time.Millisecond)
				token.Stop()
			}()
		}
	}

	done := make(chan Result)
	go func() {
		result, err := d.Run(context.Background(), f.job, token)
		require.NoError(t, err)
		done <- result
	}()

	select {
	case result := <-done:
		require.Equal(t, StateStopped, result.State)
		require.Equal(t, 1, result.Attempted)
	case <-time.After(5 * time.Second):
		t.Fatal("pacing wait did not wake up on stop")
	}
}

func TestRunNetworkFailure(t *testing.T) {
	f := setup(t, 6)
	f.job.Form.ActionURL = f.endpoint.server.URL
	f.endpoint.server.Close()

	result, err := f.dispatcher.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.Equal(t, StateCompleted, result.State)
	require.Equal(t, 6, result.Failed)
	require.Zero(t, result.Succeeded)
	require.Empty(t, f.ledger.counts)
	require.Equal(t, 6, f.sink.count(StatusError))
}

func TestRunLedgerFailure(t *testing.T) {
	f := setup(t, 7)
	f.ledger.fail = true

	result, err := f.dispatcher.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.Equal(t, 7, result.Succeeded)
	require.Zero(t, result.Deducted)
	require.Len(t, f.endpoint.received(), 7)
	// one failed batch of 5 and the flush of 2
	require.Equal(t, 2, f.sink.count(StatusError))
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	f := setup(t, 2)
	var nested error
	f.sink.onLog = func(entry LogEntry) {
		if entry.ID == 1 {
			_, nested = f.dispatcher.Run(context.Background(), f.job, NewCancelToken())
		}
	}

	_, err := f.dispatcher.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.ErrorIs(t, nested, ErrAlreadyRunning)
}

func TestRunValidation(t *testing.T) {
	f := setup(t, 2)

	job := f.job
	job.Form.ActionURL = ""
	_, err := f.dispatcher.Run(context.Background(), job, NewCancelToken())
	require.ErrorIs(t, err, ErrNoActionURL)

	job = f.job
	job.Count = 0
	_, err = f.dispatcher.Run(context.Background(), job, NewCancelToken())
	require.ErrorIs(t, err, planner.ErrCountOutOfRange)
	require.Equal(t, StateIdle, f.dispatcher.State())
}

func TestBuildBody(t *testing.T) {
	parsed := testForm("https://example.com/formResponse")
	parsed.Items = append(parsed.Items, form.FormItem{ID: "no-wire", Type: form.SHORT_ANSWER})
	schedule := planner.Schedule{
		"gender":  {{"Female"}},
		"hobbies": {{"Chess", "Golf"}},
		"notes":   {nil},
		"no-wire": {{"ignored"}},
	}
	grids := func(item form.FormItem) []planner.GridAnswer {
		return []planner.GridAnswer{{RowID: "301", Column: "B"}}
	}

	body := BuildBody(parsed, schedule, 0, grids)
	require.Equal(t, Body{
		{"fbzx", "-123"},
		{"pageHistory", "0,1,2"},
		{"draftResponse", "[]"},
		{"entry.100", "Female"},
		{"entry.200", "Chess"},
		{"entry.200", "Golf"},
		{"entry.301", "B"},
	}, body)
	require.Equal(t, []string{"Chess", "Golf"}, body.Values("entry.200"))
	require.Equal(t,
		"fbzx=-123&pageHistory=0%2C1%2C2&draftResponse=%5B%5D&entry.100=Female&entry.200=Chess&entry.200=Golf&entry.301=B",
		body.Encode(),
	)

	parsed.Fbzx = ""
	parsed.Items = parsed.Items[:1]
	body = BuildBody(parsed, schedule, 0, nil)
	require.Equal(t, Body{{"draftResponse", "[]"}, {"entry.100", "Female"}}, body)
}

func TestPageHistory(t *testing.T) {
	require.Equal(t, "", PageHistory(0))
	require.Equal(t, "0,1", PageHistory(1))
	require.Equal(t, "0,1,2", PageHistory(2))
}

func TestHistorySink(t *testing.T) {
	res := testutil.SetupService(t, testutil.ServiceParams{})

	f := setup(t, 3)
	qry := res.Qry
	history, err := NewHistorySink(context.Background(), qry, f.job.Form, 3, f.clock, res.Telemetry)
	require.NoError(t, err)

	d, err := New(Options{
		Sink:   MultiSink{f.sink, history, SlogSink{}},
		Client: resty.New(),
		Time:   f.clock,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	result, err := d.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.NoError(t, history.Finish(result))

	run, err := qry.GetRun(context.Background(), history.RunID)
	require.NoError(t, err)
	require.Equal(t, "completed", run.State)
	require.Equal(t, int64(3), run.Succeeded)

	logs, err := qry.ListRunLogs(context.Background(), history.RunID)
	require.NoError(t, err)
	require.Len(t, logs, len(f.sink.entries))
	require.Equal(t, string(StatusInfo), logs[0].Status)
}

func TestCancelToken(t *testing.T) {
	token := NewCancelToken()
	require.False(t, token.Stopped())
	token.Stop()
	token.Stop()
	require.True(t, token.Stopped())
	select {
	case <-token.Done():
	default:
		t.Fatal("done channel was not closed")
	}
}

func TestCancelTokenZeroValue(t *testing.T) {
	var token CancelToken
	require.False(t, token.Stopped())
	done := token.Done()
	select {
	case <-done:
		t.Fatal("done channel closed before stop")
	default:
	}

	token.Stop()
	token.Stop()
	require.True(t, token.Stopped())
	select {
	case <-done:
	default:
		t.Fatal("done channel was not closed")
	}

	var stoppedFirst CancelToken
	stoppedFirst.Stop()
	select {
	case <-stoppedFirst.Done():
	default:
		t.Fatal("done channel of a stopped token was not closed")
	}
}

func TestBatchSizeIsBounded(t *testing.T) {
	for _, size := range []int{-1, 0, 50} {
		e := newEndpoint(t)
		l := &fakeLedger{credits: 100}
		d, err := New(Options{
			Ledger:    l,
			Client:    resty.New(),
			Time:      &chrono.Instant{},
			BatchSize: size,
		}, &telemetry.Recorder{})
		require.NoError(t, err)

		f := setup(t, 12)
		f.job.Form.ActionURL = e.server.URL + "/formResponse"
		result, err := d.Run(context.Background(), f.job, NewCancelToken())
		require.NoError(t, err)
		require.Equal(t, 12, result.Deducted)
		require.Equal(t, []int{5, 5, 2}, l.counts, "batch size %d", size)
	}

	e := newEndpoint(t)
	l := &fakeLedger{credits: 100}
	d, err := New(Options{
		Ledger:    l,
		Client:    resty.New(),
		Time:      &chrono.Instant{},
		BatchSize: 3,
	}, &telemetry.Recorder{})
	require.NoError(t, err)
	f := setup(t, 7)
	f.job.Form.ActionURL = e.server.URL + "/formResponse"
	_, err = d.Run(context.Background(), f.job, NewCancelToken())
	require.NoError(t, err)
	require.Equal(t, []int{3, 3, 1}, l.counts)
}
