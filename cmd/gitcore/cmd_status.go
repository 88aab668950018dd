package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged, unstaged and untracked changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if repo.IsBare() {
				return fmt.Errorf("status needs a working tree")
			}
			out := cmd.OutOrStdout()

			head, err := repo.Head(ctx)
			if err != nil {
				return err
			}
			if head.Detached {
				fmt.Fprintln(out, ui.BranchInfo(head.Target.Short(), true))
			} else {
				fmt.Fprintln(out, ui.BranchInfo(head.Branch, false))
			}
			fmt.Fprintln(out)

			from, err := headSource(ctx, repo)
			if err != nil {
				return err
			}
			idx := repo.Index().Index()
			staged, err := diff.Compute(ctx, repo.Objects(), from, diff.IndexSource(idx), nil)
			if err != nil {
				return err
			}
			changes, err := repo.Index().Status(ctx)
			if err != nil {
				return err
			}
			ignore, err := pathspec.LoadWorktree(repo.Worktree())
			if err != nil {
				return err
			}
			files, err := worktree.ListFiles(ctx, repo.Worktree(), ignore)
			if err != nil {
				return err
			}
			var untracked []string
			for _, f := range files {
				if !idx.Has(f.Path) {
					untracked = append(untracked, f.Path)
				}
			}

			clean := true
			if staged.NumDeltas() > 0 {
				clean = false
				fmt.Fprintln(out, ui.Section("Changes to be committed:"))
				for _, d := range staged.Deltas() {
					fmt.Fprintln(out, ui.Status(d.Status.Letter(), d.Path()))
				}
				fmt.Fprintln(out)
			}
			if len(changes.Modified)+len(changes.Deleted) > 0 {
				clean = false
				fmt.Fprintln(out, ui.Section("Changes not staged for commit:"))
				unstaged := append(slices.Clone(changes.Modified), changes.Deleted...)
				slices.Sort(unstaged)
				for _, p := range unstaged {
					letter := byte('M')
					if slices.Contains(changes.Deleted, p) {
						letter = 'D'
					}
					fmt.Fprintln(out, ui.Status(letter, p))
				}
				fmt.Fprintln(out)
			}
			if len(untracked) > 0 {
				clean = false
				fmt.Fprintln(out, ui.Section("Untracked files:"))
				for _, p := range untracked {
					fmt.Fprintln(out, ui.Status('?', p))
				}
				fmt.Fprintln(out)
			}
			if clean {
				fmt.Fprintln(out, ui.Green(ui.IconCheck+" nothing to commit, working tree clean"))
			}
			return nil
		},
	}
}
