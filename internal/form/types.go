// Package form contains the structured representation of a form produced by
// the extractor and consumed by the planner and dispatcher.
package form

type QuestionType int

const (
	UNKNOWN QuestionType = iota
	SHORT_ANSWER
	PARAGRAPH
	MULTIPLE_CHOICE
	CHECKBOXES
	DROPDOWN
	LINEAR_SCALE
	DATE
	TIME
	SECTION_HEADER
	FILE_UPLOAD
	MULTIPLE_CHOICE_GRID
	CHECKBOX_GRID
)

var questionTypeNames = map[QuestionType]string{
	UNKNOWN:              "UNKNOWN",
	SHORT_ANSWER:         "SHORT_ANSWER",
	PARAGRAPH:            "PARAGRAPH",
	MULTIPLE_CHOICE:      "MULTIPLE_CHOICE",
	CHECKBOXES:           "CHECKBOXES",
	DROPDOWN:             "DROPDOWN",
	LINEAR_SCALE:         "LINEAR_SCALE",
	DATE:                 "DATE",
	TIME:                 "TIME",
	SECTION_HEADER:       "SECTION_HEADER",
	FILE_UPLOAD:          "FILE_UPLOAD",
	MULTIPLE_CHOICE_GRID: "MULTIPLE_CHOICE_GRID",
	CHECKBOX_GRID:        "CHECKBOX_GRID",
}

func (t QuestionType) String() string {
	name, ok := questionTypeNames[t]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

func (t QuestionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsGrid is true for both grid variants.
func (t QuestionType) IsGrid() bool {
	return t == MULTIPLE_CHOICE_GRID || t == CHECKBOX_GRID
}

// IsChoice is true for question types whose answers come from a fixed option list.
func (t QuestionType) IsChoice() bool {
	return t == MULTIPLE_CHOICE || t == CHECKBOXES || t == DROPDOWN
}

// IsText is true for free-text question types.
func (t QuestionType) IsText() bool {
	return t == SHORT_ANSWER || t == PARAGRAPH
}

type ChoiceOption struct {
	Label string `json:"label"`
	ID    string `json:"id,omitempty"`
}

// Key is the weight map key of the option.
func (o ChoiceOption) Key() string {
	if o.ID != "" {
		return o.ID
	}
	return o.Label
}

// GridDimension is a single row or column of a grid question.
type GridDimension struct {
	Label string `json:"label"`
	ID    string `json:"id,omitempty"`
}

func (d GridDimension) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Label
}

type FormItem struct {
	// ID is the stable internal key of the item.
	ID string `json:"id"`
	// SubmissionID is the wire field identifier, empty for structural items.
	SubmissionID string       `json:"submission_id,omitempty"`
	Index        int          `json:"index"`
	Type         QuestionType `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Required     bool         `json:"required"`

	LimitOneResponsePerColumn bool `json:"limit_one_response_per_column,omitempty"`
	IsPageBreak               bool `json:"is_page_break,omitempty"`

	Options []ChoiceOption `json:"options,omitempty"`

	ScaleStart      int    `json:"scale_start,omitempty"`
	ScaleEnd        int    `json:"scale_end,omitempty"`
	ScaleStartLabel string `json:"scale_start_label,omitempty"`
	ScaleEndLabel   string `json:"scale_end_label,omitempty"`

	Rows    []GridDimension `json:"rows,omitempty"`
	Columns []GridDimension `json:"columns,omitempty"`
}

const (
	// MinScaleBound and MaxScaleBound are the widest linear scale a form can
	// define.
	MinScaleBound = 0
	MaxScaleBound = 10

	DefaultScaleStart = 1
	DefaultScaleEnd   = 5
)

// ValidScale reports whether start..end is a linear scale a form can define.
func ValidScale(start, end int) bool {
	return start >= MinScaleBound && end <= MaxScaleBound && start < end
}

// ScaleRange returns the inclusive bounds of a linear scale, unset or
// invalid bounds fall back to 1..5.
func (i FormItem) ScaleRange() (start, end int) {
	if !ValidScale(i.ScaleStart, i.ScaleEnd) {
		return DefaultScaleStart, DefaultScaleEnd
	}
	return i.ScaleStart, i.ScaleEnd
}

type ParsedForm struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	FormID        string     `json:"form_id,omitempty"`
	DocumentTitle string     `json:"document_title,omitempty"`
	ActionURL     string     `json:"action_url,omitempty"`
	Fbzx          string     `json:"fbzx,omitempty"`
	Items         []FormItem `json:"items"`
}

// PageBreakCount is the number of items that start a new page.
func (f ParsedForm) PageBreakCount() int {
	count := 0
	for _, item := range f.Items {
		if item.IsPageBreak {
			count++
		}
	}
	return count
}

// Item looks up an item by its internal id.
func (f ParsedForm) Item(id string) (FormItem, bool) {
	for _, item := range f.Items {
		if item.ID == id {
			return item, true
		}
	}
	return FormItem{}, false
}
