package dispatch

import (
	"net/url"
	"strconv"
	"strings"

	"formsim-backend/internal/form"
	"formsim-backend/internal/planner"
)

const (
	EntryPrefix      = "entry."
	KeyFbzx          = "fbzx"
	KeyPageHistory   = "pageHistory"
	KeyDraftResponse = "draftResponse"
)

// GridResolver picks the row answers of a grid for one submission.
type GridResolver func(item form.FormItem) []planner.GridAnswer

// PageHistory claims every page of a form with pageBreaks page breaks was
// visited, ex. 2 -> "0,1,2". It is empty for single page forms.
func PageHistory(pageBreaks int) string {
	if pageBreaks <= 0 {
		return ""
	}
	pages := make([]string, pageBreaks+1)
	for i := range pages {
		pages[i] = strconv.Itoa(i)
	}
	return strings.Join(pages, ",")
}

// Body is an ordered list of url encoded form fields, keys may repeat.
type Body [][2]string

func (b *Body) add(key, value string) {
	*b = append(*b, [2]string{key, value})
}

// Values returns every value posted under key.
func (b Body) Values(key string) []string {
	var out []string
	for _, kv := range b {
		if kv[0] == key {
			out = append(out, kv[1])
		}
	}
	return out
}

// Encode url encodes the body keeping the field order.
func (b Body) Encode() string {
	var out strings.Builder
	for i, kv := range b {
		if i > 0 {
			out.WriteByte('&')
		}
		out.WriteString(url.QueryEscape(kv[0]))
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(kv[1]))
	}
	return out.String()
}

// BuildBody builds the wire body of submission i.
func BuildBody(parsed form.ParsedForm, schedule planner.Schedule, i int, grids GridResolver) Body {
	var body Body
	if parsed.Fbzx != "" {
		body.add(KeyFbzx, parsed.Fbzx)
	}
	if history := PageHistory(parsed.PageBreakCount()); history != "" {
		body.add(KeyPageHistory, history)
	}
	body.add(KeyDraftResponse, "[]")

	for _, item := range parsed.Items {
		if item.Type.IsGrid() {
			if grids == nil {
				continue
			}
			for _, answer := range grids(item) {
				body.add(EntryPrefix+answer.RowID, answer.Column)
			}
			continue
		}
		if item.SubmissionID == "" {
			continue
		}
		for _, value := range schedule.At(item.ID, i) {
			body.add(EntryPrefix+item.SubmissionID, value)
		}
	}
	return body
}
