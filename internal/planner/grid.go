package planner

import "formsim-backend/internal/form"

// GridAnswer is the column chosen for one row of a grid.
type GridAnswer struct {
	RowID  string
	Column string
}

// ResolveGrid picks a column for each row of a grid for a single submission.
// With limitOne on a multiple choice grid the columns are shuffled and dealt
// to the rows in order, rows past the column count are left unanswered.
// Otherwise each row gets a uniformly random column. Rows without an id
// cannot be addressed and are skipped.
func ResolveGrid(rng Rand, item form.FormItem, limitOne bool) []GridAnswer {
	if len(item.Rows) == 0 || len(item.Columns) == 0 {
		return nil
	}

	columns := make([]string, len(item.Columns))
	for i, c := range item.Columns {
		columns[i] = c.Label
	}

	var out []GridAnswer
	if limitOne && item.Type == form.MULTIPLE_CHOICE_GRID {
		rng.Shuffle(len(columns), func(i, j int) {
			columns[i], columns[j] = columns[j], columns[i]
		})
		for idx, row := range item.Rows {
			if row.ID == "" || idx >= len(columns) {
				continue
			}
			out = append(out, GridAnswer{RowID: row.ID, Column: columns[idx]})
		}
		return out
	}

	for _, row := range item.Rows {
		if row.ID == "" {
			continue
		}
		out = append(out, GridAnswer{RowID: row.ID, Column: columns[rng.Intn(len(columns))]})
	}
	return out
}
