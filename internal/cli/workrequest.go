package cli

import "github.com/spf13/cobra"

// NewWorkRequestCmd создаёт группу команд для work requests.
func NewWorkRequestCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workrequest",
		Aliases: []string{"wr"},
		Short:   "Manage work requests",
	}

	cmd.AddCommand(
		newWorkRequestCreateCmd(clientFn, outputFn),
		newWorkRequestShowCmd(clientFn, outputFn),
		newWorkRequestListCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkRequestCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work request and start processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			created, err := client.CreateWorkRequest(CreateWorkRequestRequest{
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Created(created)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Work request title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Details for the planner")
	cmd.MarkFlagRequired("title")

	return cmd
}

func newWorkRequestShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:     "show ID",
		Aliases: []string{"get"},
		Short:   "Show work request details",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wr, err := client.GetWorkRequest(args[0])
			if err != nil {
				return err
			}

			out.WorkRequest(wr)
			return nil
		},
	}
}

func newWorkRequestListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent work requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			items, err := client.ListWorkRequests(limit)
			if err != nil {
				return err
			}

			out.WorkRequests(items)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of work requests")

	return cmd
}
