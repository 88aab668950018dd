package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/config"
)

type configOptions struct {
	system, global, local bool
	list, getAll, unset   bool
	add, showOrigin       bool
	table                 bool
}

func newConfigCmd(g *globalOptions) *cobra.Command {
	o := &configOptions{}

	cmd := &cobra.Command{
		Use:   "config [<level>] (--list | <key> [<value>])",
		Short: "Read and write configuration",
		Long: `Read the effective value of key, or write value at a level
(--local by default). Levels from lowest to highest precedence are
builtin defaults, --system, --global, --local and -c on the command line.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := g.openConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			level, explicit := o.level()

			switch {
			case o.list:
				var rows [][]string
				for _, e := range cfg.List() {
					if explicit && e.Level != level {
						continue
					}
					rows = append(rows, []string{e.Level.String(), e.Key.String(), e.Value})
				}
				if o.table {
					return ui.Table(out, []string{"Level", "Key", "Value"}, rows)
				}
				for _, r := range rows {
					if o.showOrigin {
						fmt.Fprintf(out, "%s\t", r[0])
					}
					fmt.Fprintf(out, "%s=%s\n", r[1], r[2])
				}
				return nil
			case len(args) == 0:
				return fmt.Errorf("config needs a key or --list")
			case o.unset:
				return cfg.Unset(ctx, args[0], level)
			case len(args) == 2 && o.add:
				return cfg.Add(ctx, args[0], args[1], level)
			case len(args) == 2:
				return cfg.Set(ctx, args[0], args[1], level)
			case o.getAll:
				entries, err := cfg.GetAll(args[0])
				if err != nil {
					return err
				}
				for _, e := range entries {
					if !explicit || e.Level == level {
						fmt.Fprintln(out, e.Value)
					}
				}
				return nil
			}

			e, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			if o.showOrigin {
				fmt.Fprintf(out, "%s\t", e.Level)
			}
			fmt.Fprintln(out, e.Value)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.system, "system", false, "Use the system-wide file")
	f.BoolVar(&o.global, "global", false, "Use the per-user file")
	f.BoolVar(&o.local, "local", false, "Use the repository file")
	f.BoolVarP(&o.list, "list", "l", false, "List every effective entry")
	f.BoolVar(&o.getAll, "get-all", false, "Print every value of a multi-valued key")
	f.BoolVar(&o.unset, "unset", false, "Remove the key")
	f.BoolVar(&o.add, "add", false, "Add a value without replacing existing ones")
	f.BoolVar(&o.showOrigin, "show-origin", false, "Prefix values with the level they come from")
	f.BoolVarP(&o.table, "table", "t", false, "Show --list as a table")
	cmd.MarkFlagsMutuallyExclusive("system", "global", "local")
	cmd.MarkFlagsMutuallyExclusive("list", "get-all", "unset", "add")
	return cmd
}

// level is the level named by the flags, RepositoryLevel when none is.
func (o *configOptions) level() (config.Level, bool) {
	switch {
	case o.system:
		return config.SystemLevel, true
	case o.global:
		return config.UserLevel, true
	case o.local:
		return config.RepositoryLevel, true
	}
	return config.RepositoryLevel, false
}

// openConfig is the repository configuration, or only the host files
// outside a repository.
func (g *globalOptions) openConfig(cmd *cobra.Command) (*config.Manager, error) {
	repo, err := g.openRepository(cmd)
	if err == nil {
		return repo.Config(), nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}
	cfg, err := config.Open(cmd.Context(), nil, "")
	if err != nil {
		return nil, err
	}
	return cfg, g.applyOverrides(cfg)
}
