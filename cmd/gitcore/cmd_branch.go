package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/refs"
)

func newBranchCmd(g *globalOptions) *cobra.Command {
	var deleteFlag, renameFlag, forceFlag, verboseFlag bool

	cmd := &cobra.Command{
		Use:   "branch [<name> [<start-point>]]",
		Short: "List, create, delete or rename branches",
		Long: `With no arguments, list branches and mark the current one.
With a name, create a branch at start-point (HEAD by default).

Examples:
  gitcore branch --show-commit
  gitcore branch feature main~2
  gitcore branch -d feature
  gitcore branch -m old new`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			rs := repo.Refs()
			out := cmd.OutOrStdout()

			switch {
			case renameFlag:
				var oldName, newName string
				switch len(args) {
				case 0:
					return fmt.Errorf("new branch name required for rename")
				case 1:
					current, err := rs.CurrentBranch()
					if err != nil {
						return err
					}
					if current == "" {
						return fmt.Errorf("not on any branch (detached HEAD)")
					}
					oldName, newName = current, args[0]
				default:
					oldName, newName = args[0], args[1]
				}
				if err := rs.RenameBranch(ctx, oldName, newName, forceFlag); err != nil {
					return err
				}
				fmt.Fprintf(out, "Branch %s renamed to %s\n", oldName, newName)
				return nil

			case deleteFlag:
				if len(args) != 1 {
					return fmt.Errorf("branch -d takes exactly one branch name")
				}
				id, err := rs.ResolveID(ctx, refs.HeadsPrefix+args[0])
				if err != nil {
					return err
				}
				if err := rs.DeleteBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted branch %s (was %s).\n", args[0], id.Short())
				return nil

			case len(args) > 0:
				start := refs.HEAD
				if len(args) == 2 {
					start = args[1]
				}
				c, err := repo.ResolveCommit(ctx, start)
				if err != nil {
					return err
				}
				if _, err := rs.CreateBranch(ctx, args[0], c.ID(), forceFlag); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.SuccessMessage("Created branch", args[0], "at "+c.ID().Short()))
				return nil
			}

			branches, err := rs.Branches()
			if err != nil {
				return err
			}
			current, _ := rs.CurrentBranch()
			for _, b := range branches {
				name := b.ShortName()
				marker := "  "
				if name == current {
					marker = ui.IconCurrent + " "
					name = ui.Green(name)
				}
				if !verboseFlag {
					fmt.Fprintf(out, "%s%s\n", marker, name)
					continue
				}
				summary := ""
				if c, err := commit.Lookup(ctx, repo.Objects(), b.Target); err == nil {
					summary = c.Summary()
				}
				fmt.Fprintf(out, "%s%s %s %s\n", marker, name, ui.Yellow(b.Target.Short()), summary)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&deleteFlag, "delete", "d", false, "Delete a branch")
	f.BoolVarP(&renameFlag, "move", "m", false, "Rename a branch")
	f.BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing branch")
	f.BoolVar(&verboseFlag, "show-commit", false, "Show the commit each branch points at")
	cmd.MarkFlagsMutuallyExclusive("delete", "move")
	return cmd
}
