package main

import (
	"encoding/json"
	"fmt"

	"dashboard-summarizer/internal/bootstrap"
	"dashboard-summarizer/internal/config"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newFingerprintCmd() *cobra.Command {
	var flags dashboardFlags

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the cache key for a dashboard and filter state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, _, err := flags.fingerprint()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp.String())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the metadata cache",
	}
	cmd.AddCommand(newCacheShowCmd())
	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var flags dashboardFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached metadata document for a dashboard and filter state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheShow(cmd, flags, config.Load())
		},
	}
	flags.register(cmd)
	return cmd
}

func runCacheShow(cmd *cobra.Command, flags dashboardFlags, cfg *config.Config) error {
	fp, _, err := flags.fingerprint()
	if err != nil {
		return err
	}

	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer log.Sync()

	store, closeStore, err := bootstrap.NewKeyValueStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	doc, ok := service.NewMetadataCache(store, log).Get(cmd.Context(), fp)
	if !ok {
		color.New(color.FgYellow).Fprintf(out, "not cached: %s\n", fp)
		return nil
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata document: %w", err)
	}
	fmt.Fprintln(out, string(body))
	return nil
}
