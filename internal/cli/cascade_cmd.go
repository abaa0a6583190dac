package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCascadeCmd(a *app) *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "cascade <id>",
		Short: "Delete entities attached to a record",
		Long: "Delete entities attached to a record of the given collection, as the " +
			"stream handler does when the record is soft-deleted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if collection == "" {
				collection = a.backend.AuthTypes.Collection()
			}
			if !a.backend.Registry.HasDetachers(collection) {
				return fmt.Errorf("nothing is attached to collection %q (known: %v)", collection, a.backend.Registry.Collections())
			}
			n, err := a.backend.Registry.Detach(cmd.Context(), collection, args[0])
			if err != nil {
				return err
			}
			result := deleteResult{Detached: n}
			return a.print(result, result.String)
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "Collection of the record (default: the auth types collection)")
	return cmd
}
