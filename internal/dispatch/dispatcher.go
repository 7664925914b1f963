// Package dispatch delivers planned submissions to a form one at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"formsim-backend/internal/components/assert"
	"formsim-backend/internal/components/chrono"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/form"
	"formsim-backend/internal/ledger"
	"formsim-backend/internal/planner"
	"formsim-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("formsim/dispatch")
	meter  = otel.Meter("formsim/dispatch")
)

const (
	report_dispatcher_submit = "dispatcher.submit"
	report_dispatcher_deduct = "dispatcher.deduct"

	DefaultPacing    = 2 * time.Second
	DefaultBatchSize = 5
	DefaultTimeout   = 30 * time.Second
)

var (
	ErrSubmission     = errors.New("submission failed")
	ErrAlreadyRunning = errors.New("dispatcher is already running")
	ErrNoActionURL    = errors.New("form has no action url")
)

type Options struct {
	// Ledger is charged for every delivered submission, nil disables accounting.
	Ledger ledger.Ledger
	// Sink receives the run log, it may be nil.
	Sink Sink
	// Client overrides the browser-like client submissions are posted with.
	Client *resty.Client
	Time   chrono.TimeAPI
	// Pacing is the wait between two submissions.
	Pacing time.Duration
	// BatchSize is the number of delivered submissions deducted at once, in
	// 1..DefaultBatchSize. Values outside it use DefaultBatchSize.
	BatchSize int
}

// Job is everything a run needs. Schedule must not change during the run.
type Job struct {
	Form     form.ParsedForm
	Schedule planner.Schedule
	Count    int
	// LimitOne holds the one response per column toggle of each grid.
	LimitOne map[string]bool
	// Rand resolves grids for every submission.
	Rand planner.Rand
}

type Result struct {
	State     State
	Attempted int
	Succeeded int
	Failed    int
	// Deducted is the amount of credits the ledger accepted.
	Deducted int
}

type Dispatcher struct {
	ledger    ledger.Ledger
	sink      Sink
	client    *resty.Client
	time      chrono.TimeAPI
	pacing    time.Duration
	batchSize int
	tel       telemetry.API

	submissions metric.Int64Counter

	mutex  sync.Mutex
	state  State
	nextID int
}

func New(opts Options, tel telemetry.API) (*Dispatcher, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("dispatcher", tel)

	client := opts.Client
	if client == nil {
		var err error
		client, err = restyutil.NewBrowserClient(DefaultTimeout)
		if err != nil {
			return nil, err
		}
	}
	telemetry.InstrumentResty(client, tel)

	timeAPI := opts.Time
	if timeAPI == nil {
		timeAPI = chrono.NewStandardTime()
	}
	pacing := opts.Pacing
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}

	submissions, err := meter.Int64Counter(
		"formsim_submissions_total",
		metric.WithDescription("The total amount of submissions attempted."),
	)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		ledger:      opts.Ledger,
		sink:        opts.Sink,
		client:      client,
		time:        timeAPI,
		pacing:      pacing,
		batchSize:   batchSize,
		tel:         tel,
		submissions: submissions,
	}, nil
}

func (d *Dispatcher) State() State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state
}

func (d *Dispatcher) setState(state State) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.state = state
}

func (d *Dispatcher) log(status Status, format string, args ...any) {
	d.nextID++
	entry := LogEntry{
		ID:      d.nextID,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
		Time:    d.time.Now(),
	}
	if d.sink != nil {
		d.sink.OnLog(entry)
	}
}

func (d *Dispatcher) progress(done, total int) {
	if d.sink != nil {
		d.sink.OnProgress(done, total)
	}
}

func (d *Dispatcher) submit(ctx context.Context, actionURL string, body Body) error {
	res, err := d.client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetBody(body.Encode()).
		Post(actionURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	// the response says nothing about whether the submission was recorded
	if res.IsError() {
		d.tel.ReportWarning(report_dispatcher_submit, fmt.Errorf("unexpected response status: %s", res.Status()))
	}
	return nil
}

func (d *Dispatcher) deduct(ctx context.Context, count int, result *Result) {
	if d.ledger == nil || count <= 0 {
		return
	}
	balance, err := d.ledger.Deduct(ctx, count)
	if err != nil {
		d.tel.ReportWarning(report_dispatcher_deduct, err, count)
		d.log(StatusError, "Credit deduction of %d failed: %v", count, err)
		return
	}
	result.Deducted += count
	d.log(StatusInfo, "%d credits deducted, balance: %d", count, balance.Credits)
}

// wait blocks for the pacing interval, returning early on a stop request.
func (d *Dispatcher) wait(ctx context.Context, token *CancelToken) {
	select {
	case <-d.time.After(d.pacing):
	case <-token.Done():
	case <-ctx.Done():
	}
}

// Run posts job.Count submissions in order, pacing them and charging the
// ledger in batches. Failed submissions and ledger errors are logged and the
// run continues. Stopping token or cancelling ctx ends the run at the next
// submission boundary.
func (d *Dispatcher) Run(ctx context.Context, job Job, token *CancelToken) (Result, error) {
	assert.NotNil(token)

	err := planner.ValidateCount(job.Count)
	if err != nil {
		return Result{}, err
	}
	if job.Form.ActionURL == "" {
		return Result{}, ErrNoActionURL
	}

	d.mutex.Lock()
	if d.state == StateRunning {
		d.mutex.Unlock()
		return Result{}, ErrAlreadyRunning
	}
	d.state = StateRunning
	d.nextID = 0
	d.mutex.Unlock()

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("action_url", job.Form.ActionURL),
		attribute.Int("count", job.Count),
	)

	rng := job.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(d.time.Now().UnixNano()))
	}
	grids := func(item form.FormItem) []planner.GridAnswer {
		return planner.ResolveGrid(rng, item, job.LimitOne[item.ID])
	}
	// delivered submissions are charged even when ctx is cancelled
	ledgerCtx := context.WithoutCancel(ctx)

	result := Result{State: StateRunning}
	pending := 0
	stopped := false

	d.log(StatusInfo, "Initializing automation engine for %d submissions...", job.Count)

	for i := 0; i < job.Count; i++ {
		if token.Stopped() || ctx.Err() != nil {
			stopped = true
			break
		}

		body := BuildBody(job.Form, job.Schedule, i, grids)
		err := d.submit(ctx, job.Form.ActionURL, body)
		result.Attempted++
		if err != nil {
			result.Failed++
			d.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
			d.tel.ReportWarning(report_dispatcher_submit, err, i+1)
			d.log(StatusError, "Submission #%d failed to reach server: %v", i+1, err)
		} else {
			result.Succeeded++
			pending++
			d.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
			d.log(StatusSuccess, "Submission #%d delivered", i+1)
		}

		if pending == d.batchSize {
			d.deduct(ledgerCtx, pending, &result)
			pending = 0
		}

		d.progress(i+1, job.Count)

		if i < job.Count-1 && !token.Stopped() {
			d.wait(ctx, token)
		}
	}

	d.deduct(ledgerCtx, pending, &result)

	if stopped {
		result.State = StateStopped
		d.log(StatusStopped, "Stopped by user after %d of %d submissions", result.Attempted, job.Count)
	} else {
		result.State = StateCompleted
		d.log(StatusInfo, "Completed: %d of %d submissions delivered", result.Succeeded, job.Count)
	}
	span.SetAttributes(attribute.String("state", result.State.String()))
	d.tel.ReportCount("submissions.succeeded", int64(result.Succeeded))

	d.setState(result.State)
	return result, nil
}
