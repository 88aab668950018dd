package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/config"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/pathspec"
	"github.com/utkarsh5026/gitcore/pkg/repository"
)

type diffOptions struct {
	cached      bool
	stat        bool
	nameStatus  bool
	nameOnly    bool
	findRenames string
	findCopies  bool
	noRenames   bool
	unified     int
	ignoreSpace bool
}

func newDiffCmd(g *globalOptions) *cobra.Command {
	o := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [--cached] [<revision> [<revision>]]",
		Short: "Show changes between trees, the index and the working tree",
		Long: `With no revision, compare the index with the working tree.
With --cached, compare HEAD (or the given revision) with the index.
With one revision, compare it with the working tree; with two, compare
the two trees. "a..b" is the same as "a b".`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 && strings.Contains(args[0], "..") {
				from, to, _ := strings.Cut(args[0], "..")
				args = []string{from, to}
			}
			from, to, err := diffSources(ctx, repo, args, o.cached)
			if err != nil {
				return err
			}

			tc := config.NewTypedConfig(repo.Config())
			opts := diff.DefaultOptions()
			opts.ContextLines = tc.DiffContext()
			if cmd.Flags().Changed("unified") {
				opts.ContextLines = o.unified
			}
			opts.IgnoreWhitespace = o.ignoreSpace
			opts.Logger = logger.Default

			d, err := diff.Compute(ctx, repo.Objects(), from, to, opts)
			if err != nil {
				return err
			}
			if d, err = findSimilar(ctx, repo, d, o); err != nil {
				return err
			}
			return printDiff(ctx, cmd.OutOrStdout(), d, o)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.cached, "cached", false, "Compare against the index")
	f.BoolVar(&o.cached, "staged", false, "Synonym for --cached")
	f.BoolVar(&o.stat, "stat", false, "Show a diffstat instead of a patch")
	f.BoolVar(&o.nameStatus, "name-status", false, "Show only names and status letters")
	f.BoolVar(&o.nameOnly, "name-only", false, "Show only names of changed files")
	f.StringVarP(&o.findRenames, "find-renames", "M", "", "Detect renames, optionally with a similarity threshold")
	f.Lookup("find-renames").NoOptDefVal = "50"
	f.BoolVar(&o.findCopies, "find-copies", false, "Detect copies as well as renames")
	f.BoolVar(&o.noRenames, "no-renames", false, "Turn off rename detection")
	f.IntVarP(&o.unified, "unified", "U", 3, "Lines of context")
	f.BoolVarP(&o.ignoreSpace, "ignore-all-space", "w", false, "Ignore whitespace when comparing lines")
	cmd.MarkFlagsMutuallyExclusive("stat", "name-status", "name-only")
	return cmd
}

func diffSources(ctx context.Context, repo *repository.Repository, args []string, cached bool) (diff.Source, diff.Source, error) {
	treeOf := func(rev string) (diff.Source, error) {
		t, err := repo.ResolveTree(ctx, rev)
		if err != nil {
			return nil, err
		}
		return diff.TreeSource(t), nil
	}

	if len(args) == 2 {
		from, err := treeOf(args[0])
		if err != nil {
			return nil, nil, err
		}
		to, err := treeOf(args[1])
		if err != nil {
			return nil, nil, err
		}
		return from, to, nil
	}
	if repo.IsBare() {
		return nil, nil, fmt.Errorf("diff of the index or working tree needs a working tree")
	}
	idx := repo.Index().Index()

	var (
		from diff.Source
		err  error
	)
	switch {
	case len(args) == 1:
		from, err = treeOf(args[0])
	case cached:
		from, err = headSource(ctx, repo)
	default:
		from = diff.IndexSource(idx)
	}
	if err != nil {
		return nil, nil, err
	}
	if cached {
		return from, diff.IndexSource(idx), nil
	}

	ignore, err := pathspec.LoadWorktree(repo.Worktree())
	if err != nil {
		return nil, nil, err
	}
	work := diff.WorkdirSource(repo.Worktree(), ignore)
	tracked := diff.SourceFunc(func(ctx context.Context, r objects.Reader) ([]diff.SourceFile, error) {
		files, err := work.Files(ctx, r)
		if err != nil {
			return nil, err
		}
		out := files[:0]
		for _, f := range files {
			if idx.Has(f.Path) {
				out = append(out, f)
			}
		}
		return out, nil
	})
	return from, tracked, nil
}

func findSimilar(ctx context.Context, repo *repository.Repository, d *diff.Diff, o *diffOptions) (*diff.Diff, error) {
	fo, err := diff.FindOptionsFromConfig(repo.Config())
	if err != nil {
		return nil, err
	}
	if o.findRenames != "" {
		fo.Renames = true
		threshold, err := strconv.Atoi(strings.TrimSuffix(o.findRenames, "%"))
		if err != nil || threshold < 0 || threshold > 100 {
			return nil, fmt.Errorf("invalid rename threshold %q", o.findRenames)
		}
		fo.RenameThreshold = threshold
	}
	if o.findCopies {
		fo.Copies = true
	}
	if o.noRenames {
		fo.Renames, fo.Copies = false, false
	}
	if !fo.Renames && !fo.Copies {
		return d, nil
	}
	fo.Metric = diff.NewHashMetric(repo.Worktree())
	fo.Logger = logger.Default
	return diff.FindSimilar(ctx, d, fo)
}

func printDiff(ctx context.Context, w io.Writer, d *diff.Diff, o *diffOptions) error {
	switch {
	case o.nameOnly:
		for _, delta := range d.Deltas() {
			fmt.Fprintln(w, delta.Path())
		}
		return nil
	case o.nameStatus:
		for _, delta := range d.Deltas() {
			switch delta.Status {
			case diff.Renamed, diff.Copied:
				fmt.Fprintf(w, "%c%03d\t%s\t%s\n", delta.Status.Letter(), delta.Similarity, delta.OldFile.Path, delta.NewFile.Path)
			default:
				fmt.Fprintf(w, "%c\t%s\n", delta.Status.Letter(), delta.Path())
			}
		}
		return nil
	case o.stat:
		stats, err := d.Stats(ctx)
		if err != nil {
			return err
		}
		return printStat(w, stats)
	}

	pw := ui.NewPatchWriter(w)
	if err := d.WritePatch(ctx, pw); err != nil {
		return err
	}
	return pw.Flush()
}

func printStat(w io.Writer, s *diff.Stats) error {
	width := 0
	for _, f := range s.Files {
		width = max(width, len(f.Path))
	}
	for _, f := range s.Files {
		if f.Binary {
			fmt.Fprintf(w, " %-*s | Bin\n", width, f.Path)
			continue
		}
		fmt.Fprintf(w, " %-*s | %4d %s%s\n", width, f.Path, f.Additions+f.Deletions,
			ui.Added(strings.Repeat("+", min(f.Additions, 40))),
			ui.Deleted(strings.Repeat("-", min(f.Deletions, 40))))
	}
	_, err := fmt.Fprintln(w, s.String())
	return err
}
