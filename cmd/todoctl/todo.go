package main

import (
	"errors"
	"fmt"

	"github.com/dmehra2102/todo-api/pkg/client"
	"github.com/spf13/cobra"
)

type clientFactory func() *client.Client

func newListCmd(newClient clientFactory) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := newClient().List(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := writeTodoTable(out, result.Items); err != nil {
				return err
			}
			p := result.Pagination
			_, err = fmt.Fprintf(out, "\npage %d of %d (%d total)\n", p.CurrentPage, p.TotalPages, p.Total)
			return err
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "items per page (max 100)")
	return cmd
}

func newGetCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := newClient().Get(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			return writeTodoDetail(cmd.OutOrStdout(), todo)
		},
	}
}

func newCreateCmd(newClient clientFactory) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := newClient().Create(cmd.Context(), client.CreateRequest{
				Title:       args[0],
				Description: description,
			})
			if err != nil {
				return describe(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", todo.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "todo description")
	return cmd
}

func newUpdateCmd(newClient clientFactory) *cobra.Command {
	var (
		title       string
		description string
		done        bool
		undone      bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a todo's title, description or completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdateRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			switch {
			case done && undone:
				return errors.New("--done and --undone are mutually exclusive")
			case done:
				req.Completed = &done
			case undone:
				completed := false
				req.Completed = &completed
			}

			todo, err := newClient().Update(cmd.Context(), args[0], req)
			if err != nil {
				return describe(err)
			}
			return writeTodoDetail(cmd.OutOrStdout(), todo)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().BoolVar(&done, "done", false, "mark completed")
	cmd.Flags().BoolVar(&undone, "undone", false, "mark not completed")
	return cmd
}

func newDeleteCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more todos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			for _, id := range args {
				if err := c.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("%s: %w", id, describe(err))
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// describe expands validation failures into one line per field.
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return err
	}
	msg := apiErr.Message
	for _, d := range apiErr.Details {
		msg += fmt.Sprintf("\n  %s: %s", d.Field, d.Message)
	}
	return errors.New(msg)
}
