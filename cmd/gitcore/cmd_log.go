package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utkarsh5026/gitcore/cmd/ui"
	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/common/logger"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/refs"
	"github.com/utkarsh5026/gitcore/pkg/repository"
	"github.com/utkarsh5026/gitcore/pkg/revwalk"
)

const dateLayout = "Mon Jan 2 15:04:05 2006 -0700"

type logOptions struct {
	limit       int
	topo        bool
	date        bool
	reverse     bool
	firstParent bool
	oneline     bool
	table       bool
}

func newLogCmd(g *globalOptions) *cobra.Command {
	o := &logOptions{}

	cmd := &cobra.Command{
		Use:   "log [<revision>...] [^<revision>...]",
		Short: "Show commit history",
		Long: `Show the commits reachable from the given revisions (HEAD by default)
and not reachable from any revision prefixed with ^.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			history, err := walkHistory(ctx, repo, args, o)
			if errs.IsNotFound(err) && len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.WarningMessage("no commits yet"))
				return nil
			}
			if err != nil {
				return err
			}
			decorations, err := decorate(ctx, repo)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), history, decorations, o)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&o.limit, "max-count", "n", 0, "Show at most this many commits")
	f.BoolVar(&o.topo, "topo-order", false, "Show no parent before all of its children")
	f.BoolVar(&o.date, "date-order", false, "Order by commit time")
	f.BoolVar(&o.reverse, "reverse", false, "Show the oldest commit first")
	f.BoolVar(&o.firstParent, "first-parent", false, "Follow only the first parent of merges")
	f.BoolVar(&o.oneline, "oneline", false, "One line per commit")
	f.BoolVarP(&o.table, "table", "t", false, "Show commits as a table")
	cmd.MarkFlagsMutuallyExclusive("oneline", "table")
	return cmd
}

func walkHistory(ctx context.Context, repo *repository.Repository, args []string, o *logOptions) ([]*commit.Commit, error) {
	w := revwalk.New(repo.Objects(), revwalk.WithRefs(repo.Refs()), revwalk.WithLogger(logger.Default))
	mode := revwalk.SortNone
	if o.topo {
		mode |= revwalk.SortTopological
	}
	if o.date {
		mode |= revwalk.SortTime
	}
	if o.reverse {
		mode |= revwalk.SortReverse
	}
	w.Sorting(mode)
	if o.firstParent {
		w.SimplifyFirstParent()
	}

	pushed := false
	for _, arg := range args {
		hide := strings.HasPrefix(arg, "^")
		id, err := repo.ResolveRevision(ctx, strings.TrimPrefix(arg, "^"))
		if err != nil {
			return nil, err
		}
		if hide {
			err = w.Hide(ctx, id)
		} else {
			err = w.Push(ctx, id)
			pushed = true
		}
		if err != nil {
			return nil, err
		}
	}
	if !pushed {
		id, err := repo.HeadID(ctx)
		if err != nil {
			return nil, err
		}
		if err := w.Push(ctx, id); err != nil {
			return nil, err
		}
	}

	var history []*commit.Commit
	for o.limit <= 0 || len(history) < o.limit {
		c, err := w.NextCommit(ctx)
		if errors.Is(err, revwalk.ErrIterOver) {
			break
		}
		if err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	w.Reset()
	return history, nil
}

// decorate maps commit ids to the short names of references at them.
func decorate(ctx context.Context, repo *repository.Repository) (map[objects.ObjectID][]string, error) {
	list, err := repo.Refs().List()
	if err != nil {
		return nil, err
	}
	out := make(map[objects.ObjectID][]string)
	if head, err := repo.Head(ctx); err == nil && head.Detached {
		out[head.Target] = append(out[head.Target], refs.HEAD)
	}
	for _, r := range list {
		if r.IsSymbolic() {
			continue
		}
		id := r.Target
		if r.Peeled.IsValid() && !r.Peeled.IsZero() {
			id = r.Peeled
		}
		out[id] = append(out[id], r.ShortName())
	}
	return out, nil
}

func printHistory(w io.Writer, history []*commit.Commit, decorations map[objects.ObjectID][]string, o *logOptions) error {
	switch {
	case o.oneline:
		for _, c := range history {
			line := ui.Yellow(c.ID().Short())
			if names := decorations[c.ID()]; len(names) > 0 {
				line += " " + ui.Cyan("("+strings.Join(names, ", ")+")")
			}
			fmt.Fprintf(w, "%s %s\n", line, c.Summary())
		}
		return nil
	case o.table:
		rows := make([][]string, 0, len(history))
		for _, c := range history {
			rows = append(rows, []string{
				c.ID().Short(),
				c.Author().Name,
				c.Author().When.Format("2006-01-02 15:04"),
				ui.Truncate(c.Summary(), 50),
			})
		}
		return ui.Table(w, []string{"Commit", "Author", "Date", "Message"}, rows)
	}

	for i, c := range history {
		fmt.Fprintln(w, ui.FormatCommit(ui.CommitInfo{
			Hash:    c.ID().String(),
			Refs:    decorations[c.ID()],
			Author:  fmt.Sprintf("%s <%s>", c.Author().Name, c.Author().Email),
			Date:    c.Author().When.Format(dateLayout),
			Message: c.Message(),
		}))
		if i < len(history)-1 {
			fmt.Fprintln(w, ui.Separator())
		}
	}
	return nil
}
