package ledger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"formsim-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_http_ledger_deduct  = "http-ledger.deduct"
	report_http_ledger_balance = "http-ledger.balance"
)

type HTTPLedgerOptions struct {
	// BaseURL is the url the credit routes are mounted under, ex. https://host/api/credits
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPLedger talks to a remote credit service over json.
type HTTPLedger struct {
	client *resty.Client
	tel    telemetry.API
}

type deductRequest struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPLedger(opts HTTPLedgerOptions, tel telemetry.API) HTTPLedger {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("content-type", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	telemetry.InstrumentResty(client, telemetry.NewScopedAPI("http-ledger", tel))

	return HTTPLedger{client: client, tel: tel}
}

func responseError(res *resty.Response) error {
	message := res.Status()
	if body, ok := res.Error().(*errorResponse); ok && body.Error != "" {
		message = body.Error
	}
	if res.StatusCode() == http.StatusForbidden {
		return fmt.Errorf("%w: %w: %s", ErrLedger, ErrInsufficientCredits, message)
	}
	return fmt.Errorf("%w: %s", ErrLedger, message)
}

func (l HTTPLedger) Deduct(ctx context.Context, count int) (Balance, error) {
	var balance Balance
	res, err := l.client.R().
		SetContext(ctx).
		SetBody(deductRequest{Count: count}).
		SetResult(&balance).
		SetError(&errorResponse{}).
		Post("/deduct")
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLedger, err)
		l.tel.ReportBroken(report_http_ledger_deduct, err, count)
		return Balance{}, err
	}
	if res.IsError() {
		err = responseError(res)
		l.tel.ReportWarning(report_http_ledger_deduct, err, count)
		return Balance{}, err
	}
	return balance, nil
}

func (l HTTPLedger) Balance(ctx context.Context) (Balance, error) {
	var balance Balance
	res, err := l.client.R().
		SetContext(ctx).
		SetResult(&balance).
		SetError(&errorResponse{}).
		Get("/balance")
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLedger, err)
		l.tel.ReportBroken(report_http_ledger_balance, err)
		return Balance{}, err
	}
	if res.IsError() {
		return Balance{}, responseError(res)
	}
	return balance, nil
}
