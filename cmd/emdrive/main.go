// Command emdrive runs the emdrive database server: SQL over HTTP,
// persisted to disk as paged B+ trees.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emdrive/emdrive/internal/config"
	"github.com/emdrive/emdrive/internal/executor"
	"github.com/emdrive/emdrive/internal/logging"
	"github.com/emdrive/emdrive/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emdrive",
		Short: "A small relational database server speaking SQL over HTTP",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			exec := executor.New(&cfg)
			srv := server.New(&cfg, exec.Requests())

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error { return exec.Run(ctx) })
			group.Go(func() error { return srv.Run(ctx) })
			if err := group.Wait(); err != nil {
				return err
			}
			logging.Info("shut down gracefully")
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration in environment form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}
