package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phrazzld/todo-api/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// render writes v in the selected format. table is used for the table
// format and receives a tabwriter that is flushed afterwards.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func projectTable(projects ...*domain.Project) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tTASKS\tDESCRIPTION\tCREATED")
		for _, p := range projects {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
				p.ID, p.Name, p.TaskCount, deref(p.Description), p.CreatedAt.Format(time.RFC3339))
		}
	}
}

func taskTable(tasks ...*domain.Task) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tTITLE\tDEADLINE")
		for _, t := range tasks {
			deadline := "-"
			if t.Deadline != nil {
				deadline = t.Deadline.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", t.ID, t.ProjectID, t.Status, t.Title, deadline)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
