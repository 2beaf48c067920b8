package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b0ase/cashboard/cmd/api/server"
	"github.com/b0ase/cashboard/config"
	"github.com/b0ase/cashboard/logging"
)

var (
	verbose    bool
	configPath string
	backend    string
	dataDir    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cashboard",
	Short: "Cashboard workflow canvas service",
	Long: `Cashboard keeps business-flow canvases: organizations, roles, wallets,
contracts and payments wired together as a graph.

Run "cashboard server" for the HTTP API, or use the canvas and catalog
commands against the local store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var opts []config.LoaderOption
		if configPath != "" {
			opts = append(opts, config.WithUserConfig(configPath))
		}
		c, err := config.NewLoader(nil, opts...).Load()
		if err != nil {
			return err
		}
		if backend != "" {
			c.Store.Backend = backend
		}
		if dataDir != "" {
			c.Store.DataDir = dataDir
		}
		if verbose {
			c.Log.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		logger, err = logging.New(c.Log.Level, c.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the API server in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.NewApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Run(ctx, watch)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "User config file (default ~/.config/cashboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "Store backend: memory, file, sqlite or nats")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory")

	serverCmd.Flags().Bool("watch", true, "Import workflow files dropped into the import directory")

	rootCmd.AddCommand(serverCmd, startCmd, stopCmd, statusCmd)
	rootCmd.AddCommand(exportCmd, importCmd, watchCmd, catalogCmd, canvasCmd, sessionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
