// Command kennelbot runs the kennel's Telegram bot and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/kennelbot/core/buildinfo"
	corecmd "github.com/m3rciful/kennelbot/core/cmd"
	"github.com/m3rciful/kennelbot/core/fileutil"
	"github.com/m3rciful/kennelbot/kennel/app"
	"github.com/m3rciful/kennelbot/kennel/catalog"
	"github.com/m3rciful/kennelbot/kennel/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "kennelbot",
		Short:         "Cane Corso kennel Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot until interrupted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(configPath)
			},
		},
		catalogCmd(&configPath),
		inquiriesCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "kennelbot %s\n", buildinfo.String())
			},
		},
	)
	return root
}

func runnerOptions(configPath string) corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
		AllowNoConfigFile: true,
	}
}

func serve(configPath string) error {
	opts := runnerOptions(configPath)
	opts.LoadConfig = func(path string) (corecmd.ConfigCarrier, error) {
		return config.Load(path)
	}
	opts.Bootstrap = func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
		return app.New(ctx, cfg.(*config.AppConfig))
	}
	return corecmd.Run(opts)
}

// loadLocal reads configuration for commands that do not talk to Telegram.
func loadLocal(configPath string) (*config.AppConfig, error) {
	path, err := corecmd.ResolveConfigPath(runnerOptions(configPath))
	if err != nil {
		return nil, err
	}
	return config.LoadLocal(path)
}

func catalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the puppy catalog file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the starter catalog if none exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadLocal(*configPath)
			if err != nil {
				return err
			}
			return initCatalog(cmd.Context(), cmd.OutOrStdout(), cfg.Catalog.Path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing catalog")
	cmd.AddCommand(initCmd)
	return cmd
}

func initCatalog(ctx context.Context, out io.Writer, path string, force bool) error {
	if force {
		if err := fileutil.WriteJSON(path, catalog.Seed()); err != nil {
			return err
		}
		fmt.Fprintf(out, "catalog written to %s\n", path)
		return nil
	}
	c, err := catalog.NewFileStore(path).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "catalog at %s: %d puppies, %d available\n", path, len(c.Items), len(c.Available()))
	return nil
}

func inquiriesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inquiries",
		Short: "Inspect stored inquiries",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print every stored inquiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadLocal(*configPath)
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			return printInquiries(cmd.OutOrStdout(), records, asJSON)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.AddCommand(list)
	return cmd
}
