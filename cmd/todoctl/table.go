package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmehra2102/todo-api/pkg/client"
)

const maxTitleWidth = 48

func writeTodoTable(w io.Writer, todos []client.Todo) error {
	if len(todos) == 0 {
		_, err := fmt.Fprintln(w, "No todos found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tCREATED\tTITLE")
	for _, t := range todos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, checkbox(t.Completed), t.CreatedAt.Local().Format(time.DateTime), truncate(t.Title, maxTitleWidth))
	}
	return tw.Flush()
}

func writeTodoDetail(w io.Writer, t *client.Todo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	fmt.Fprintf(tw, "Completed:\t%t\n", t.Completed)
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", t.UpdatedAt.Local().Format(time.RFC3339))
	return tw.Flush()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
