package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
)

func newAddCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Add file contents to the index",
		Long: `Hash the named files into the object database and stage them
for the next commit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if repo.IsBare() {
				return fmt.Errorf("add needs a working tree")
			}
			paths, err := g.repoPaths(repo, args)
			if err != nil {
				return err
			}

			result, err := repo.Index().Add(cmd.Context(), paths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range result.Added {
				fmt.Fprintln(out, ui.Status('A', p))
			}
			for _, p := range result.Modified {
				fmt.Fprintln(out, ui.Status('M', p))
			}
			for _, f := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", ui.Red("failed:"), f.Path, f.Reason)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d paths could not be added", len(result.Failed))
			}
			return nil
		},
	}
}

func newRmCmd(g *globalOptions) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm [--cached] <file>...",
		Short: "Remove files from the index and the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if repo.IsBare() {
				return fmt.Errorf("rm needs a working tree")
			}
			paths, err := g.repoPaths(repo, args)
			if err != nil {
				return err
			}
			result, err := repo.Index().Remove(paths, !cached)
			if err != nil {
				return err
			}
			for _, p := range result.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "rm '%s'\n", p)
			}
			for _, f := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", ui.Red("failed:"), f.Path, f.Reason)
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d paths could not be removed", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "Only unstage; keep the working tree file")
	return cmd
}
