// Package extractor reconstructs a form schema from the html of a published
// form page. The schema lives in a json array assigned to a global inside one
// of the page's scripts.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"formsim-backend/internal/form"
	"formsim-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("formsim/extractor")

const (
	LoadDataMarker = "FB_PUBLIC_LOAD_DATA_"
	FormsOrigin    = "https://docs.google.com"
	untitledForm   = "Untitled Form"
)

var (
	ErrExtraction          = errors.New("extraction failed")
	ErrFormDataNotDetected = errors.New("form data not detected")
	ErrMalformedPayload    = errors.New("malformed payload")
	ErrUnexpectedShape     = errors.New("unexpected schema shape")
)

func fail(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrExtraction, kind, fmt.Sprintf(format, args...))
}

// Extract parses the html of a form page into a ParsedForm.
func Extract(html string) (form.ParsedForm, error) {
	return ExtractContext(context.Background(), html)
}

// ExtractContext is Extract with the extraction recorded as a span under ctx.
func ExtractContext(ctx context.Context, html string) (form.ParsedForm, error) {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	parsed, err := extract(html)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return form.ParsedForm{}, err
	}
	span.SetAttributes(
		attribute.String("form_id", parsed.FormID),
		attribute.Int("items", len(parsed.Items)),
	)
	return parsed, nil
}

func extract(html string) (form.ParsedForm, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return form.ParsedForm{}, fail(ErrMalformedPayload, "parse html: %v", err)
	}

	actionURL, _ := doc.Find("form").First().Attr("action")
	if actionURL != "" && !strings.HasPrefix(actionURL, "http") {
		actionURL = FormsOrigin + actionURL
	}
	fbzx, _ := doc.Find(`input[name="fbzx"]`).First().Attr("value")

	script, ok := htmlutil.FirstScriptContaining(doc, LoadDataMarker)
	if !ok {
		return form.ParsedForm{}, fail(ErrFormDataNotDetected, "no script contains %s", LoadDataMarker)
	}

	root, err := decodePayload(script)
	if err != nil {
		return form.ParsedForm{}, err
	}

	data := list(at(root, 1))
	if data == nil {
		return form.ParsedForm{}, fail(ErrUnexpectedShape, "missing root data at [1]")
	}

	parsed := form.ParsedForm{
		Title:         firstNonEmpty(str(at(data, 8)), str(at(root, 3)), untitledForm),
		Description:   str(at(data, 0)),
		FormID:        str(at(root, 14)),
		DocumentTitle: str(at(root, 3)),
		ActionURL:     actionURL,
		Fbzx:          fbzx,
	}
	for idx, raw := range list(at(data, 1)) {
		item, ok := parseField(raw, idx)
		if !ok {
			continue
		}
		parsed.Items = append(parsed.Items, item)
	}

	return parsed, nil
}

// decodePayload reads the array literal between the first '[' and the last
// ';' of the script.
func decodePayload(script string) (any, error) {
	begin := strings.Index(script, "[")
	end := strings.LastIndex(script, ";")
	if begin < 0 || end < 0 || end <= begin {
		return nil, fail(ErrMalformedPayload, "could not locate array boundaries")
	}

	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(script[begin:end])))
	dec.UseNumber()

	var root any
	err := dec.Decode(&root)
	if err != nil {
		return nil, fail(ErrMalformedPayload, "decode: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fail(ErrMalformedPayload, "trailing data after array")
	}
	if _, ok := root.([]any); !ok {
		return nil, fail(ErrUnexpectedShape, "root is not an array")
	}
	return root, nil
}
