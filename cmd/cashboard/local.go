package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b0ase/cashboard/catalog"
	"github.com/b0ase/cashboard/format/cashboard"
	"github.com/b0ase/cashboard/infra"
	"github.com/b0ase/cashboard/model"
	"github.com/b0ase/cashboard/plugin"
	"github.com/b0ase/cashboard/render"
	"github.com/b0ase/cashboard/store"
	"github.com/b0ase/cashboard/workspace"
)

func openStore(ctx context.Context) (*store.CanvasStore, io.Closer, error) {
	kv, closer, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return store.NewCanvasStore(kv, store.WithLogger(logger)), closer, nil
}

func localWorkspace(ctx context.Context, cs *store.CanvasStore) *workspace.Workspace {
	return workspace.New(ctx, "cli",
		workspace.WithStore(cs),
		workspace.WithLogger(logger),
		workspace.WithBus(plugin.LogBus{Log: logger}),
	)
}

// loadCanvas reads a saved canvas; the main canvas falls back to its seed.
func loadCanvas(ctx context.Context, cs *store.CanvasStore, title string) (model.Canvas, model.View, error) {
	c, view, found := cs.Load(ctx, title)
	if found {
		return c, view, nil
	}
	if title == catalog.MainTabTitle {
		return catalog.DefaultCanvas(), view, nil
	}
	return model.Canvas{}, model.View{}, fmt.Errorf("canvas %q: %w", title, store.ErrNotFound)
}

var exportCmd = &cobra.Command{
	Use:   "export [title]",
	Short: "Write a saved canvas as a workflow export document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		title := catalog.MainTabTitle
		if len(args) == 1 {
			title = args[0]
		}
		style, _ := cmd.Flags().GetString("style")
		if !cashboard.Style(style).Valid() {
			return fmt.Errorf("unknown connection style %q", style)
		}
		cs, closer, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		c, view, err := loadCanvas(ctx, cs, title)
		if err != nil {
			return err
		}
		doc := cashboard.Export(c, view, cashboard.Style(style), time.Now())
		b, err := cashboard.Marshal(doc)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "-" {
			_, err = cmd.OutOrStdout().Write(append(b, '\n'))
			return err
		}
		if out == "" {
			dir := infra.ExportDir(cfg.Store.DataDir)
			if err := infra.EnsureDir(dir); err != nil {
				return err
			}
			out = filepath.Join(dir, cashboard.FileName(doc.Metadata.Name))
		}
		if err := os.WriteFile(out, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d nodes, %d edges to %s\n", len(c.Nodes), len(c.Edges), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a workflow export or n8n workflow into the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		cs, closer, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		w := localWorkspace(ctx, cs)
		format, err := w.ImportBytes(ctx, b)
		if err != nil {
			return err
		}
		tab := w.ActiveTab()
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s workflow into %q (%d nodes)\n", format, tab.Title, len(w.Canvas(ctx).Nodes))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import workflow files as they appear in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.ImportDir()
		if len(args) == 1 {
			dir = args[0]
		}
		once, _ := cmd.Flags().GetBool("once")
		if err := infra.EnsureDir(dir); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()
		cs, closer, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()

		w := localWorkspace(ctx, cs)
		q := infra.NewMemQueue()
		watcher, err := infra.NewWatcher(dir, cfg.Watch.Patterns, q, infra.WithWatchLogger(logger))
		if err != nil {
			return err
		}
		handle := func(ctx context.Context, j infra.Job) error {
			b, err := os.ReadFile(j.Path)
			if err != nil {
				return err
			}
			format, err := w.ImportBytes(ctx, b)
			if err != nil {
				return err
			}
			logger.Info("imported file", zap.String("path", j.Path), zap.String("format", format))
			return nil
		}
		onErr := func(j infra.Job, err error) {
			logger.Warn("import failed", zap.String("path", j.Path), zap.Error(err))
		}

		n, err := watcher.Scan(ctx)
		if err != nil {
			return err
		}
		if once {
			for {
				j, ok := q.Pop()
				if !ok {
					break
				}
				if err := handle(ctx, j); err != nil {
					onErr(j, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d files from %s\n", n, dir)
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return watcher.Run(gctx) })
		g.Go(func() error {
			if err := infra.Consume(gctx, q, handle, onErr); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		return g.Wait()
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [kind]",
	Short: "List template catalog entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Builtin()
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			var err error
			if cat, err = catalog.LoadFile(file); err != nil {
				return err
			}
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if len(args) == 0 {
			fmt.Fprintln(tw, "KIND\tTEMPLATES")
			for _, k := range model.Kinds() {
				if items := cat.Items(k); len(items) > 0 {
					fmt.Fprintf(tw, "%s\t%d\n", k, len(items))
				}
			}
			return nil
		}
		k := model.Kind(args[0])
		if !k.Valid() {
			return fmt.Errorf("%q: %w", k, model.ErrUnknownKind)
		}
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTYPE")
		for _, it := range cat.Items(k) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, it.Type)
		}
		return nil
	},
}

var canvasCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Inspect saved canvases",
}

var canvasListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved canvas keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()
		titles, err := cs.Titles(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range titles {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

var canvasShowCmd = &cobra.Command{
	Use:   "show [title]",
	Short: "Print the nodes of a canvas in flow order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		title := catalog.MainTabTitle
		if len(args) == 1 {
			title = args[0]
		}
		cs, closer, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closer.Close()
		c, _, err := loadCanvas(ctx, cs, title)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintf(tw, "%s: %d nodes, %d edges\n", title, len(c.Nodes), len(c.Edges))
		fmt.Fprintln(tw, "ID\tICON\tTITLE\tHANDLE")
		for _, n := range flowOrder(c) {
			v := render.View(n)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Icon, v.Title, v.Handle)
		}
		return nil
	},
}

var canvasDeleteCmd = &cobra.Command{
	Use:   "rm <title>",
	Short: "Delete a saved canvas and its viewport",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()
		return cs.Delete(cmd.Context(), args[0])
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", `Output file ("-" for stdout, default the export directory)`)
	exportCmd.Flags().String("style", string(cashboard.DefaultStyle), "Connection style recorded in the export")
	watchCmd.Flags().Bool("once", false, "Import the files already present and exit")
	catalogCmd.Flags().String("file", "", "Catalog YAML to read instead of the built-in one")

	canvasCmd.AddCommand(canvasListCmd, canvasShowCmd, canvasDeleteCmd)
}
