package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard-summarizer/internal/bootstrap"
	"dashboard-summarizer/internal/config"
	"dashboard-summarizer/internal/controller"
	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/model"
	"dashboard-summarizer/internal/session"
	"dashboard-summarizer/pkg/exporter"

	"github.com/spf13/cobra"
)

type summarizeOptions struct {
	dashboardFlags
	runState string
	export   string
	timeout  time.Duration
}

func newSummarizeCmd() *cobra.Command {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Load a dashboard's metadata and stream its summary",
		Example: `  dashsum summarize --dashboard 42 --filter region=EU --filter "date=7 days"
  dashsum summarize --dashboard thelook::orders --export slack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.runState, "run-state", string(model.RunStateNotRunning), "dashboard run state reported to the extractor")
	cmd.Flags().StringVar(&opts.export, "export", "", "export the summary to google_chat, slack or sheets")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "give up if the summary has not completed")
	return cmd
}

func runSummarize(cmd *cobra.Command, opts summarizeOptions) error {
	_, filters, err := opts.fingerprint()
	if err != nil {
		return err
	}
	runState, err := parseRunState(opts.runState)
	if err != nil {
		return err
	}
	var dest exporter.Destination
	if opts.export != "" {
		if dest, err = exporter.ParseDestination(opts.export); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewSessionContainer(ctx, config.Load())
	if err != nil {
		return err
	}
	defer container.Close()

	renderer := newFeedRenderer(cmd.OutOrStdout())
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	if err := container.Feed.Consume(feedCtx, renderer.Handle); err != nil {
		return fmt.Errorf("subscribe to session feed: %w", err)
	}

	ctrl := container.Controller
	defer ctrl.Close()

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("connect to summarization service: %w", err)
	}

	host := model.TileHostData{
		DashboardID:       opts.dashboardID,
		DashboardFilters:  filters,
		DashboardRunState: runState,
	}
	if err := ctrl.Load(ctx, host); err != nil {
		return fmt.Errorf("load dashboard metadata: %w", err)
	}

	requestID, err := ctrl.Summarize(ctx)
	if errors.Is(err, controller.ErrNoMetadata) {
		return fmt.Errorf("no cached metadata for dashboard %s and its run state is %s; re-run once the dashboard has run", opts.dashboardID, runState)
	}
	if err != nil {
		return err
	}

	final, err := waitForSummary(ctx, renderer, opts.timeout)
	if err != nil {
		return fmt.Errorf("summary %s: %w", requestID, err)
	}
	if !final.HasSummary {
		if final.State == session.StateDisconnected.String() {
			return errors.New("connection to summarization service lost before the summary completed")
		}
		return errors.New("summary generation failed")
	}

	if dest == "" {
		return nil
	}
	return ctrl.Export(ctx, dest)
}

func waitForSummary(ctx context.Context, renderer *feedRenderer, timeout time.Duration) (dto.SessionSnapshot, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case final := <-renderer.Done():
		return final, nil
	case <-timer.C:
		return dto.SessionSnapshot{}, fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return dto.SessionSnapshot{}, ctx.Err()
	}
}
