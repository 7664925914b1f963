package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"formsim-backend/internal/form"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var inspectJSON bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Prints the extracted form as json.")
	rootCmd.AddCommand(inspectCmd)
}

func describeItem(item form.FormItem) string {
	switch {
	case item.Type.IsChoice():
		labels := make([]string, len(item.Options))
		for i, o := range item.Options {
			labels[i] = o.Label
		}
		return strings.Join(labels, ", ")
	case item.Type == form.LINEAR_SCALE:
		start, end := item.ScaleRange()
		return fmt.Sprintf("%d (%s) .. %d (%s)", start, item.ScaleStartLabel, end, item.ScaleEndLabel)
	case item.Type.IsGrid():
		desc := fmt.Sprintf("%d rows x %d columns", len(item.Rows), len(item.Columns))
		if item.LimitOneResponsePerColumn {
			desc += ", one per column"
		}
		return desc
	case item.IsPageBreak:
		return "page break"
	}
	return ""
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <url|file> [--json]",
	Short: "Extracts and prints the questions of a form.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := loadForm(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if inspectJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(parsed)
		}

		fmt.Printf("%s\n%s\n\n", parsed.Title, parsed.ActionURL)

		t := newTable()
		t.AppendHeader(table.Row{"#", "Entry", "Type", "Title", "Required", "Answers"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 4, WidthMax: 48},
			{Number: 6, WidthMax: 48},
		})
		for _, item := range parsed.Items {
			t.AppendRow(table.Row{
				item.Index,
				item.SubmissionID,
				item.Type.String(),
				item.Title,
				item.Required,
				describeItem(item),
			})
		}
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d items, %d pages", len(parsed.Items), parsed.PageBreakCount()+1)})
		t.Render()
		return nil
	},
}
