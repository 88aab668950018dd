package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	errs "github.com/utkarsh5026/gitcore/pkg/common/err"
	"github.com/utkarsh5026/gitcore/pkg/objects"
	"github.com/utkarsh5026/gitcore/pkg/objects/commit"
	"github.com/utkarsh5026/gitcore/pkg/objects/tag"
	"github.com/utkarsh5026/gitcore/pkg/objects/tree"
	"github.com/utkarsh5026/gitcore/pkg/repository"
	"github.com/utkarsh5026/gitcore/pkg/worktree"
)

func newHashObjectCmd(g *globalOptions) *cobra.Command {
	var (
		write bool
		kind  string
		stdin bool
	)

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t type] (--stdin | <file>...)",
		Short: "Compute object ids and optionally store the objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ot, err := objects.ParseObjectType(kind)
			if err != nil {
				return err
			}
			if !stdin && len(args) == 0 {
				return fmt.Errorf("hash-object needs --stdin or at least one file")
			}

			algo := objects.SHA1
			var repo *repository.Repository
			if write {
				if repo, err = g.openRepository(cmd); err != nil {
					return err
				}
				algo = repo.HashAlgorithm()
			} else if r, err := g.openRepository(cmd); err == nil {
				algo = r.HashAlgorithm()
			} else if !errs.IsNotFound(err) {
				return err
			}

			hash := func(data []byte) error {
				id := objects.ComputeID(algo, ot, data)
				if err := validateObject(id, ot, data); err != nil {
					return err
				}
				if write {
					if id, err = repo.Objects().WriteObject(ctx, ot, data); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}

			if stdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if err := hash(data); err != nil {
					return err
				}
			}
			for _, name := range args {
				if !filepath.IsAbs(name) {
					name = filepath.Join(g.dir, name)
				}
				data, err := os.ReadFile(name)
				if err != nil {
					return err
				}
				if err := hash(data); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the object into the object database")
	cmd.Flags().StringVarP(&kind, "type", "t", "blob", "Object type")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "Read the object from standard input")
	return cmd
}

// validateObject rejects payloads that do not parse as their claimed type.
func validateObject(id objects.ObjectID, ot objects.ObjectType, data []byte) error {
	var err error
	switch ot {
	case objects.CommitType:
		_, err = commit.Parse(id, data)
	case objects.TreeType:
		_, err = tree.Parse(id, data)
	case objects.TagType:
		_, err = tag.Parse(id, data)
	}
	return err
}

func newCatFileCmd(g *globalOptions) *cobra.Command {
	var showType, showSize, pretty, exists bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p | -e) <revision>",
		Short: "Show the type, size or content of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			id, err := repo.ResolveRevision(ctx, args[0])
			if err != nil {
				return err
			}
			raw, err := repo.ReadObject(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case exists:
				return nil
			case showType:
				fmt.Fprintln(out, raw.Type)
			case showSize:
				fmt.Fprintln(out, len(raw.Data))
			case pretty:
				return printObject(out, raw)
			default:
				return fmt.Errorf("one of -t, -s, -p or -e is required")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&showType, "type", "t", false, "Show the object type")
	f.BoolVarP(&showSize, "size", "s", false, "Show the object size")
	f.BoolVarP(&pretty, "pretty", "p", false, "Pretty-print the object content")
	f.BoolVarP(&exists, "exists", "e", false, "Exit with an error unless the object exists")
	cmd.MarkFlagsMutuallyExclusive("type", "size", "pretty", "exists")
	return cmd
}

func printObject(w io.Writer, raw *objects.RawObject) error {
	if raw.Type != objects.TreeType {
		_, err := w.Write(raw.Data)
		return err
	}
	t, err := tree.FromRaw(raw)
	if err != nil {
		return err
	}
	for _, e := range t.Entries() {
		fmt.Fprintf(w, "%06s %s %s\t%s\n", e.Mode.String(), e.Mode.ObjectType(), e.ID, e.Name)
	}
	return nil
}

func newWriteTreeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Write the index as a tree object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := g.openRepository(cmd)
			if err != nil {
				return err
			}
			if repo.IsBare() {
				return fmt.Errorf("write-tree needs a working tree")
			}
			id, err := worktree.TreeFromIndex(cmd.Context(), repo.Objects(), repo.Index().Index())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
