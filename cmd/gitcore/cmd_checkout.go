package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

func newCheckoutCmd(g *globalOptions) *cobra.Command {
	var (
		force     bool
		newBranch string
		dryRun    bool
		progress  bool
	)

	cmd := &cobra.Command{
		Use:   "checkout [-f] [-b <new-branch>] <revision>",
		Short: "Switch the working tree, index and HEAD to a revision",
		Long: `Update the working tree to revision. A branch name attaches HEAD to the
branch; anything else detaches it. Local modifications that would be
overwritten stop the checkout unless -f is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rev := args[0]

			if newBranch != "" && !dryRun {
				c, err := repo.ResolveCommit(ctx, rev)
				if err != nil {
					return err
				}
				if _, err := repo.Refs().CreateBranch(ctx, newBranch, c.ID(), force); err != nil {
					return err
				}
				rev = newBranch
			}

			bar := ui.NewProgress(cmd.ErrOrStderr(), "checkout", -1, progress)
			opts := &worktree.CheckoutOptions{
				Strategy: worktree.StrategySafe,
				Progress: bar.Checkout,
				Logger:   logger.Default,
			}
			switch {
			case dryRun:
				opts.Strategy = worktree.StrategyNone
			case force:
				opts.Strategy = worktree.StrategyForce
			}

			res, err := repo.Checkout(ctx, rev, opts)
			bar.Finish()
			if res != nil {
				for _, c := range res.Conflicts {
					fmt.Fprintln(cmd.ErrOrStderr(), ui.Red("conflict: ")+c.String())
				}
			}
			if err != nil {
				return err
			}

			if dryRun {
				for _, op := range res.Operations {
					fmt.Fprintf(out, "%-6s %s\n", op.Action, op.Path)
				}
				return nil
			}
			for _, p := range res.Dirty {
				fmt.Fprintln(out, ui.Status('M', p))
			}
			head, err := repo.Head(ctx)
			if err != nil {
				return err
			}
			if head.Detached {
				fmt.Fprintln(out, ui.BranchInfo(head.Target.Short(), true))
			} else {
				fmt.Fprintln(out, ui.SuccessMessage("Switched to branch", head.Branch))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&force, "force", "f", false, "Discard local modifications")
	f.StringVarP(&newBranch, "branch", "b", "", "Create this branch at revision and switch to it")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "Only list what would change")
	f.BoolVar(&progress, "progress", false, "Show progress on stderr")
	return cmd
}
