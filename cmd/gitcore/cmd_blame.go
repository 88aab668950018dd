package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	"github.com/utkarsh5026/gitcore/pkg/blame"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/config"
	"github.com/utkarsh5026/gitcore/pkg/diff"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
)

type blameOptions struct {
	lines       string
	contents    string
	ignoreSpace bool
	moves       bool
	copies      int
	firstParent bool
	progress    bool
}

func newBlameCmd(g *globalOptions) *cobra.Command {
	o := &blameOptions{}

	cmd := &cobra.Command{
		Use:   "blame [<revision>] <path>",
		Short: "Show the commit that last changed each line of a file",
		Long: `Attribute every line of path at revision (HEAD by default) to the
commit that introduced it. With --contents the named file is blamed as an
edited version of path: unchanged lines keep their commit, the rest show
as not committed yet.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}

			opts := &blame.Options{Logger: logger.Default}
			if o.lines != "" {
				if opts.MinLine, opts.MaxLine, err = parseLineRange(o.lines); err != nil {
					return err
				}
			}
			typed := config.NewTypedConfig(repo.Config())
			opts.MinMatchCharacters = typed.BlameMinMatch()
			opts.RenameLimit = typed.DiffRenameLimit()
			if o.ignoreSpace {
				opts.Flags |= blame.IgnoreWhitespace
			}
			if o.moves {
				opts.Flags |= blame.TrackCopiesSameFile
			}
			switch {
			case o.copies >= 3:
				opts.Flags |= blame.TrackCopiesAnyCommitCopies
				fallthrough
			case o.copies == 2:
				opts.Flags |= blame.TrackCopiesSameCommitCopies
				fallthrough
			case o.copies == 1:
				opts.Flags |= blame.TrackCopiesSameCommitMoves
			}
			if o.firstParent {
				opts.Flags |= blame.FirstParent
			}

			path := args[len(args)-1]
			if len(args) == 2 {
				c, err := repo.ResolveCommit(ctx, args[0])
				if err != nil {
					return err
				}
				opts.NewestCommit = c.ID()
			}
			if !repo.IsBare() {
				paths, err := g.repoPaths(repo, []string{path})
				if err != nil {
					return err
				}
				path = paths[0]
			}

			bar := ui.NewProgress(cmd.ErrOrStderr(), "blaming", -1, o.progress)
			opts.Progress = func(examined int, c *commit.Commit) error {
				bar.Step(examined, 0)
				return nil
			}
			result, err := blame.Blame(ctx, repo, path, opts)
			bar.Finish()
			if err != nil {
				return err
			}

			if o.contents != "" {
				name := o.contents
				if !filepath.IsAbs(name) {
					name = filepath.Join(g.dir, name)
				}
				buf, err := os.ReadFile(name)
				if err != nil {
					return err
				}
				if result, err = result.RebaseOntoBuffer(ctx, buf); err != nil {
					return err
				}
			}
			return printBlame(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.lines, "lines", "L", "", "Blame only lines <start>,<end> (1-based, inclusive)")
	f.StringVar(&o.contents, "contents", "", "Blame this file as the final version of path")
	f.BoolVarP(&o.ignoreSpace, "ignore-whitespace", "w", false, "Ignore whitespace when matching lines")
	f.BoolVarP(&o.moves, "moves", "M", false, "Detect lines moved within the file")
	f.CountVar(&o.copies, "copies", "Detect lines moved or copied from other files; repeat to widen the search")
	f.BoolVar(&o.firstParent, "first-parent", false, "Follow only the first parent of merges")
	f.BoolVar(&o.progress, "progress", false, "Show progress on stderr")
	return cmd
}

// parseLineRange reads "a,b", "a," or ",b".
func parseLineRange(s string) (int, int, error) {
	from, to, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid line range %q, want <start>,<end>", s)
	}
	var lo, hi int
	var err error
	if from != "" {
		if lo, err = strconv.Atoi(from); err != nil || lo < 1 {
			return 0, 0, fmt.Errorf("invalid start line in %q", s)
		}
	}
	if to != "" {
		if hi, err = strconv.Atoi(to); err != nil || hi < 1 {
			return 0, 0, fmt.Errorf("invalid end line in %q", s)
		}
	}
	if lo > 0 && hi > 0 && hi < lo {
		return 0, 0, fmt.Errorf("line range %q ends before it starts", s)
	}
	return lo, hi, nil
}

func printBlame(w io.Writer, r *blame.Result) error {
	lines := diff.SplitLines(r.Content())
	for _, h := range r.Hunks() {
		id := strings.Repeat("0", 8)
		author, date := "Not Committed Yet", ""
		if h.IsCommitted() {
			id = h.FinalCommitID.ShortN(8)
			if h.FinalSignature != nil {
				author = h.FinalSignature.Name
				date = h.FinalSignature.When.Format("2006-01-02 15:04:05 -0700")
			}
		}
		if h.Boundary {
			id = "^" + id[:7]
		}
		for i := range h.LinesInHunk {
			n := h.FinalStartLine + i
			text := ""
			if n-1 < len(lines) {
				text = strings.TrimRight(string(lines[n-1]), "\r\n")
			}
			if _, err := fmt.Fprintf(w, "%s (%-20s %s %4d) %s\n",
				ui.BlameID(id), ui.Truncate(author, 20), date, n, text); err != nil {
				return err
			}
		}
	}
	return nil
}
