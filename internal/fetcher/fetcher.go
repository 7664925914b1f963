// Package fetcher retrieves the html of a form page, trying the page itself
// first and then a chain of public relays.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"formsim-backend/internal/components/assert"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/extractor"
	"formsim-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_source = "fetcher.source"

	minContentLength = 500
	formsPathMarker  = "docs.google.com/forms"
	DefaultTimeout   = 15 * time.Second
)

var ErrExhausted = errors.New("every html source failed")

// Relay rewrites a target url into a url that fetches it on our behalf.
type Relay struct {
	Name    string
	Rewrite func(target string) string
}

var DefaultRelays = []Relay{
	{
		Name: "codetabs",
		Rewrite: func(target string) string {
			return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
		},
	},
	{
		Name: "allorigins",
		Rewrite: func(target string) string {
			return "https://api.allorigins.win/raw?url=" + url.QueryEscape(target)
		},
	},
	{
		Name: "corsproxy",
		Rewrite: func(target string) string {
			return "https://corsproxy.io/?" + url.QueryEscape(target)
		},
	},
}

var direct = Relay{
	Name:    "direct",
	Rewrite: func(target string) string { return target },
}

type Options struct {
	// Relays defaults to DefaultRelays.
	Relays []Relay
	// SkipDirect only uses relays.
	SkipDirect bool
	Timeout    time.Duration
	// Client overrides the browser-like client, Timeout is ignored when set.
	Client *resty.Client
}

type Fetcher struct {
	client  *resty.Client
	sources []Relay
	tel     telemetry.API
}

func New(opts Options, tel telemetry.API) (*Fetcher, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("fetcher", tel)

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var err error
		client, err = restyutil.NewBrowserClient(timeout)
		if err != nil {
			return nil, err
		}
	}

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(client, tel)

	relays := opts.Relays
	if relays == nil {
		relays = DefaultRelays
	}
	var sources []Relay
	if !opts.SkipDirect {
		sources = append(sources, direct)
	}
	sources = append(sources, relays...)

	return &Fetcher{client: client, sources: sources, tel: tel}, nil
}

// NormalizeURL trims the url and adds https:// when no scheme is given.
func NormalizeURL(target string) string {
	target = strings.TrimSpace(target)
	if !strings.HasPrefix(strings.ToLower(target), "http") {
		target = "https://" + target
	}
	return target
}

// LooksLikeForm rejects error pages and empty bodies that relays return
// with a success status.
func LooksLikeForm(text string) bool {
	if len(text) <= minContentLength {
		return false
	}
	return strings.Contains(text, extractor.LoadDataMarker) ||
		strings.Contains(text, formsPathMarker)
}

// Fetch returns the html of the first source that yields something that
// looks like a form page.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	target = NormalizeURL(target)

	var errs []error
	for _, source := range f.sources {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		res, err := f.client.R().
			SetContext(ctx).
			Get(source.Rewrite(target))
		if err != nil {
			err = fmt.Errorf("%s: %w", source.Name, err)
			f.tel.ReportWarning(report_fetcher_source, err)
			errs = append(errs, err)
			continue
		}
		if res.IsError() {
			err = fmt.Errorf("%s: status %s", source.Name, res.Status())
			f.tel.ReportWarning(report_fetcher_source, err)
			errs = append(errs, err)
			continue
		}

		text := res.String()
		if !LooksLikeForm(text) {
			err = fmt.Errorf("%s: content does not look like a form", source.Name)
			f.tel.ReportWarning(report_fetcher_source, err)
			errs = append(errs, err)
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
