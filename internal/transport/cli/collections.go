package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCollectionsCommand(rt *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"ls"},
		Short:   "List collections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			cols, err := a.Collections.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list collections: %w", err)
			}
			if len(cols) == 0 {
				cmd.Println("No collections.")
				return nil
			}
			for _, c := range cols {
				cmd.Printf("%-24s dim=%-5d records=%-7d created=%s\n",
					c.Name(), c.Dimension(), c.RecordCount(),
					time.UnixMilli(c.CreatedAt()).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and all of its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Collections.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete collection: %w", err)
			}
			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}
