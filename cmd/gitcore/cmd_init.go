package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/repository"
)

func newInitCmd(g *globalOptions) *cobra.Command {
	var bare bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Long: `Create an empty repository in path, or in the -C directory.
A bare repository keeps the metadata at the top level instead of in .git.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.dir
			if len(args) > 0 {
				path = filepath.Join(g.dir, args[0])
				if filepath.IsAbs(args[0]) {
					path = args[0]
				}
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if _, err := repository.InitPath(cmd.Context(), abs, bare); err != nil {
				return err
			}

			message := "Initialized empty repository in"
			display := filepath.Join(abs, repository.GitDir)
			if bare {
				message = "Initialized empty bare repository in"
				display = abs
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessMessage(message, display))
			return nil
		},
	}
	cmd.Flags().BoolVar(&bare, "bare", false, "Create a bare repository")
	return cmd
}
