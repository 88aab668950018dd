package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/pkg/repository"
)

func newCommitCmd(g *globalOptions) *cobra.Command {
	var (
		message    string
		allowEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record the index as a new commit",
		Long: `Write the index as a tree, create a commit on top of HEAD and
move the current branch to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			c, err := repo.CreateCommit(cmd.Context(), repository.CommitRequest{
				Message:    ensureNewline(message),
				AllowEmpty: allowEmpty,
			})
			if err != nil {
				return err
			}

			branch := "detached HEAD"
			if h, err := repo.Head(cmd.Context()); err == nil && h.Branch != "" {
				branch = h.Branch
			}
			root := ""
			if c.IsRoot() {
				root = " (root-commit)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s%s %s] %s\n", branch, root, c.ID().Short(), c.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "Allow a commit that changes nothing")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func ensureNewline(s string) string {
	if s == "" || s[len(s)-1] == '\n' {
		return s
	}
	return s + "\n"
}
