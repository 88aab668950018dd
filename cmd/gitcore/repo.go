package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/config"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/repository"
)

// openRepository finds the repository containing -C, applies -c
// overrides and then color.ui unless --color was given.
func (g *globalOptions) openRepository(cmd *cobra.Command) (*repository.Repository, error) {
	repo, err := repository.Find(cmd.Context(), g.dir)
	if err != nil {
		return nil, err
	}
	if err := g.applyOverrides(repo.Config()); err != nil {
		return nil, err
	}
	if g.color == "" {
		ui.SetColorMode(config.NewTypedConfig(repo.Config()).ColorUI())
	}
	return repo, nil
}

// applyOverrides sets the -c key=value pairs at the command-line level.
func (g *globalOptions) applyOverrides(cfg *config.Manager) error {
	for _, kv := range g.overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			value = "true"
		}
		if err := cfg.SetCommandLine(key, value); err != nil {
			return err
		}
	}
	return nil
}

// repoPaths turns command-line paths, relative to -C, into slash paths
// relative to the top of the working tree.
func (g *globalOptions) repoPaths(repo *repository.Repository, args []string) ([]string, error) {
	root, err := filepath.Abs(repo.Worktree().Root())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		p := a
		if !filepath.IsAbs(p) {
			p = filepath.Join(g.dir, p)
		}
		if p, err = filepath.Abs(p); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is outside the repository at %s", a, root)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

// headSource is the HEAD tree, or an empty source on an unborn branch.
func headSource(ctx context.Context, repo *repository.Repository) (diff.Source, error) {
	t, err := repo.ResolveTree(ctx, refs.HEAD)
	if errs.IsNotFound(err) {
		return diff.EmptySource(), nil
	}
	if err != nil {
		return nil, err
	}
	return diff.TreeSource(t), nil
}
