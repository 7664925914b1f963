package extractor

import (
	"fmt"

	"formsim-backend/internal/form"
)

var typeTable = map[int]form.QuestionType{
	0:  form.SHORT_ANSWER,
	1:  form.PARAGRAPH,
	2:  form.MULTIPLE_CHOICE,
	3:  form.DROPDOWN,
	4:  form.CHECKBOXES,
	5:  form.LINEAR_SCALE,
	6:  form.SECTION_HEADER,
	7:  form.MULTIPLE_CHOICE_GRID,
	8:  form.SECTION_HEADER,
	9:  form.DATE,
	10: form.TIME,
	11: form.CHECKBOX_GRID,
	13: form.FILE_UPLOAD,
}

const pageBreakDiscriminator = 8

func questionType(discriminator any) (form.QuestionType, bool) {
	n, ok := integer(discriminator)
	if !ok {
		return form.UNKNOWN, false
	}
	qtype, ok := typeTable[n]
	if !ok {
		return form.UNKNOWN, false
	}
	return qtype, n == pageBreakDiscriminator
}

// parseField turns a single raw field definition into a FormItem, the bool
// is false when the definition cannot be submitted and must be dropped.
func parseField(raw any, index int) (form.FormItem, bool) {
	field := list(raw)
	if len(field) < 4 {
		return form.FormItem{}, false
	}

	qtype, pageBreak := questionType(field[3])
	item := form.FormItem{
		ID:          firstNonEmpty(str(field[0]), fmt.Sprintf("q-%d", index)),
		Index:       index,
		Type:        qtype,
		Title:       str(field[1]),
		Description: str(field[2]),
		IsPageBreak: pageBreak,
	}

	entries := list(at(field, 4))
	var config []any
	if len(entries) > 0 {
		config = list(entries[0])
	}

	if config == nil {
		// headers and page breaks carry no config but still count for page history
		if qtype == form.SECTION_HEADER {
			return item, true
		}
		return form.FormItem{}, false
	}

	item.SubmissionID = str(at(config, 0))
	item.Required = isOne(at(config, 2))
	if item.SubmissionID == "" && qtype != form.SECTION_HEADER {
		return form.FormItem{}, false
	}

	switch {
	case qtype.IsGrid():
		parseGrid(&item, entries, config)
	case qtype.IsChoice():
		item.Options = parseOptions(at(config, 1))
	case qtype == form.LINEAR_SCALE:
		parseScale(&item, config)
	}

	return item, true
}

func parseGrid(item *form.FormItem, entries []any, config []any) {
	item.LimitOneResponsePerColumn = isOne(at(config, 4, 0))

	for _, col := range list(at(config, 1)) {
		label := str(at(col, 0))
		item.Columns = append(item.Columns, form.GridDimension{
			Label: label,
			ID:    label,
		})
	}

	for _, row := range entries {
		label := str(at(row, 3))
		if label == "" {
			continue
		}
		item.Rows = append(item.Rows, form.GridDimension{
			Label: label,
			ID:    str(at(row, 0)),
		})
	}
}

func parseOptions(raw any) []form.ChoiceOption {
	var options []form.ChoiceOption
	for _, opt := range list(raw) {
		label := str(at(opt, 0))
		if label == "" {
			continue
		}
		options = append(options, form.ChoiceOption{
			Label: label,
			ID:    label,
		})
	}
	return options
}

func parseScale(item *form.FormItem, config []any) {
	item.ScaleStartLabel = str(at(config, 3))
	item.ScaleEndLabel = str(at(config, 4))

	start, end := form.DefaultScaleStart, form.DefaultScaleEnd
	if n, ok := integer(at(config, 5)); ok {
		start = n
	}
	if n, ok := integer(at(config, 6)); ok {
		end = n
	}
	if !form.ValidScale(start, end) {
		start, end = form.DefaultScaleStart, form.DefaultScaleEnd
	}
	item.ScaleStart = start
	item.ScaleEnd = end
}
