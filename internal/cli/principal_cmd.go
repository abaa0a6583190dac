package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/tether/attach"
	"github.com/jacentio/tether/docstore"
	"github.com/jacentio/tether/service"
	"github.com/jacentio/tether/user"
	"github.com/jacentio/tether/validate"
)

var errNoChange = errors.New("nothing to save: entity unchanged")

func newPrincipalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "principal",
		Aliases: []string{"principals", "p"},
		Short:   "Manage principal-owned entities",
	}
	cmd.AddCommand(newPrincipalCreateCmd(a))
	cmd.AddCommand(newPrincipalSetCmd(a))
	cmd.AddCommand(newPrincipalGetCmd(a))
	cmd.AddCommand(newPrincipalListCmd(a))
	cmd.AddCommand(newPrincipalCountCmd(a))
	cmd.AddCommand(newPrincipalDeleteCmd(a))
	cmd.AddCommand(newPrincipalJoinCmd(a))
	return cmd
}

// savePrincipal saves e and turns validation failures into errors.
func (a *app) savePrincipal(cmd *cobra.Command, e *user.PrincipalEntity) error {
	v := validate.New()
	saved, err := a.backend.Principals.Service().Save(cmd.Context(), e, v)
	if err != nil {
		return err
	}
	if err := v.Err(); err != nil {
		return err
	}
	if saved == nil {
		return errNoChange
	}
	view := newPrincipalView(saved)
	return a.print(view, view.String)
}

func newPrincipalCreateCmd(a *app) *cobra.Command {
	var principalID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity attached to an auth type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := &user.PrincipalEntity{}
			e.SetPrincipalID(principalID)
			return a.savePrincipal(cmd, e)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Auth type id to attach to")
	return cmd
}

func newPrincipalSetCmd(a *app) *cobra.Command {
	var principalID string
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Re-save an entity with the given principal id",
		Long:  "Re-save an entity with the given principal id. The principal id of a saved entity cannot change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok, err := a.backend.Principals.Service().FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entity %q not found", args[0])
			}
			e.SetPrincipalID(principalID)
			return a.savePrincipal(cmd, e)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Auth type id")
	return cmd
}

func newPrincipalGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok, err := a.backend.Principals.Service().FindByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("entity %q not found", args[0])
			}
			view := newPrincipalView(e)
			return a.print(view, view.String)
		},
	}
}

func newPrincipalListCmd(a *app) *cobra.Command {
	var (
		principalID string
		first       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities, optionally those attached to one auth type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := a.backend.Principals
			var cur *service.Cursor[*user.PrincipalEntity]
			if cmd.Flags().Changed("principal-id") {
				cur = p.FindByPrincipalID(ctx, principalID)
			} else {
				cur = p.Service().Find(ctx, docstore.All())
			}

			if first {
				e, ok, err := cur.First(ctx)
				if err != nil || !ok {
					return err
				}
				view := newPrincipalView(e)
				return a.print(view, view.String)
			}

			all, err := cur.All(ctx)
			if err != nil {
				return err
			}
			views := make([]principalView, 0, len(all))
			for _, e := range all {
				views = append(views, newPrincipalView(e))
			}
			return printList(a, views)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Only list entities attached to this auth type")
	cmd.Flags().BoolVar(&first, "first", false, "Print only the first match")
	return cmd
}

func newPrincipalCountCmd(a *app) *cobra.Command {
	var principalID string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count entities attached to an auth type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.backend.Principals.CountByPrincipalID(cmd.Context(), principalID)
			if err != nil {
				return err
			}
			result := countResult{Count: n}
			return a.print(result, result.String)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Auth type id")
	_ = cmd.MarkFlagRequired("principal-id")
	return cmd
}

func newPrincipalDeleteCmd(a *app) *cobra.Command {
	var principalID string
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an entity, or every entity attached to an auth type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				res docstore.DeleteResult
				err error
			)
			switch {
			case len(args) == 1:
				res, err = a.backend.Principals.Service().DeleteByID(ctx, args[0])
			case cmd.Flags().Changed("principal-id"):
				res, err = a.backend.Principals.DeleteByPrincipalID(ctx, principalID)
			default:
				return errors.New("either an id or --principal-id is required")
			}
			if err != nil {
				return err
			}
			result := deleteResult{Deleted: res.DeletedCount}
			return a.print(result, result.String)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Delete every entity attached to this auth type")
	return cmd
}

func newPrincipalJoinCmd(a *app) *cobra.Command {
	var (
		principalID string
		cacheSize   int
	)
	cmd := &cobra.Command{
		Use:   "join",
		Short: "List entities together with their auth type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := a.backend.Principals
			f := docstore.All()
			if cmd.Flags().Changed("principal-id") {
				f = p.FilterByPrincipalID(principalID)
			}

			joined, err := attach.FindWithPrincipal[*user.PrincipalEntity, *user.AuthTypeEntity](ctx, p, a.backend.AuthTypes, f).
				Cached(cacheSize).
				All(ctx)
			if err != nil {
				return err
			}
			views := make([]joinedView, 0, len(joined))
			for _, j := range joined {
				views = append(views, newJoinedView(j))
			}
			return printList(a, views)
		},
	}
	cmd.Flags().StringVar(&principalID, "principal-id", "", "Only join entities attached to this auth type")
	cmd.Flags().IntVar(&cacheSize, "cache", 256, "Auth type lookups to remember (0 disables)")
	return cmd
}
