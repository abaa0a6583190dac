package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/user"
	"github.com/jacentio/tether/validate"
)

func newAuthTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth-type",
		Aliases: []string{"auth-types", "at"},
		Short:   "Manage auth types (principals)",
	}
	cmd.AddCommand(newAuthTypeCreateCmd(a))
	cmd.AddCommand(newAuthTypeGetCmd(a))
	cmd.AddCommand(newAuthTypeListCmd(a))
	cmd.AddCommand(newAuthTypeDeleteCmd(a))
	return cmd
}

func newAuthTypeCreateCmd(a *app) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an auth type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := &user.AuthTypeEntity{}
			// An empty source is left to validation.
			if source != "" {
				t, err := user.ParseAuthType(source)
				if err != nil {
					return fmt.Errorf("invalid --source: %w", err)
				}
				e.SetSource(t)
			}

			v := validate.New()
			saved, err := a.backend.AuthTypes.Save(cmd.Context(), e, v)
			if err != nil {
				return err
			}
			if err := v.Err(); err != nil {
				return err
			}
			view := newAuthTypeView(saved)
			return a.print(view, view.String)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", fmt.Sprintf("Authentication source %v", user.AuthTypes))
	return cmd
}

func newAuthTypeGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an auth type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok, err := a.backend.AuthTypes.FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("auth type %q not found", args[0])
			}
			view := newAuthTypeView(e)
			return a.print(view, view.String)
		},
	}
}

func newAuthTypeListCmd(a *app) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List auth types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var views []authTypeView
			for e, err := range a.backend.AuthTypes.Find(ctx, sourceFilter(source)).Seq(ctx) {
				if err != nil {
					return err
				}
				views = append(views, newAuthTypeView(e))
			}
			return printList(a, views)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only list auth types with this source")
	return cmd
}

func newAuthTypeDeleteCmd(a *app) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an auth type",
		Long:  "Delete an auth type. With --cascade, entities attached to it are deleted too.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			res, err := a.backend.AuthTypes.DeleteByID(ctx, id)
			if err != nil {
				return err
			}
			result := deleteResult{Deleted: res.DeletedCount}
			if cascade {
				n, err := a.backend.Registry.Detach(ctx, a.backend.AuthTypes.Collection(), id)
				if err != nil {
					return err
				}
				result.Detached = n
			}
			return a.print(result, result.String)
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also delete entities attached to the auth type")
	return cmd
}

func sourceFilter(source string) docstore.Filter {
	if source == "" {
		return docstore.All()
	}
	return docstore.Eq(user.FieldNameSource, source)
}
