package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/refs"
)

func newShowRefCmd(g *globalOptions) *cobra.Command {
	var heads, tags, table bool

	cmd := &cobra.Command{
		Use:   "show-ref [--heads] [--tags] [<pattern>]",
		Short: "List references and the objects they point at",
		Long: `List references sorted by name. A pattern is a glob over full names,
such as "refs/heads/*" or "refs/tags/v1.*".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			var list []*refs.Reference
			if len(args) == 1 {
				list, err = repo.Refs().Glob(args[0])
			} else {
				list, err = repo.Refs().List()
			}
			if err != nil {
				return err
			}

			var rows [][]string
			for _, r := range list {
				keep := (!heads && !tags) || (heads && refs.IsBranch(r.Name)) || (tags && refs.IsTag(r.Name))
				if r.IsSymbolic() || !keep {
					continue
				}
				rows = append(rows, []string{r.Target.String(), r.Name})
			}
			if len(rows) == 0 {
				return fmt.Errorf("no matching references")
			}
			out := cmd.OutOrStdout()
			if table {
				return ui.Table(out, []string{"Object", "Reference"}, rows)
			}
			for _, row := range rows {
				fmt.Fprintf(out, "%s %s\n", row[0], row[1])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&heads, "heads", false, "Only branches")
	cmd.Flags().BoolVar(&tags, "tags", false, "Only tags")
	cmd.Flags().BoolVarP(&table, "table", "t", false, "Show references as a table")
	return cmd
}

func newUpdateRefCmd(g *globalOptions) *cobra.Command {
	var del bool

	cmd := &cobra.Command{
		Use:   "update-ref [-d] <ref> [<new-value> [<old-value>]]",
		Short: "Point a reference at an object",
		Long: `Move ref to new-value. When old-value is given the update only happens
if ref currently holds it; an all-zero old-value requires that ref does
not exist. -d deletes ref.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			name := args[0]
			if del {
				if len(args) != 1 {
					return fmt.Errorf("update-ref -d takes only the reference name")
				}
				return repo.Refs().Delete(name)
			}
			if len(args) < 2 {
				return fmt.Errorf("update-ref needs a new value")
			}
			id, err := repo.ResolveRevision(ctx, args[1])
			if err != nil {
				return err
			}
			expected := objects.ObjectID{}
			if len(args) == 3 {
				if objects.IsHex(args[2]) && len(args[2]) == repo.HashAlgorithm().HexSize() {
					expected, err = objects.ParseObjectID(args[2])
				} else {
					expected, err = repo.ResolveRevision(ctx, args[2])
				}
				if err != nil {
					return err
				}
			}
			_, err = repo.Refs().Update(ctx, name, id, expected)
			return err
		},
	}
	cmd.Flags().BoolVarP(&del, "delete", "d", false, "Delete the reference")
	return cmd
}

func newSymbolicRefCmd(g *globalOptions) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "symbolic-ref <name> [<ref>]",
		Short: "Read or write a symbolic reference",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if args[0] == refs.HEAD && !refs.IsBranch(args[1]) {
					return fmt.Errorf("HEAD may only point at a branch under %s", refs.HeadsPrefix)
				}
				_, err := repo.Refs().CreateSymbolic(args[0], args[1], true)
				return err
			}

			r, err := repo.Refs().Read(args[0])
			if err != nil {
				return err
			}
			if !r.IsSymbolic() {
				return fmt.Errorf("%s is not a symbolic reference", args[0])
			}
			target := r.SymbolicTarget
			if short {
				target = refs.ShortName(target)
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print the shortened target name")
	return cmd
}
