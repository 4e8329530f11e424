package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"health_dashboard/internal/display"
	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var snapshotTypes []string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Initialize, grant permissions, refresh and print the metrics once",
	Long: `Run one full session against the configured provider and print
today's steps and the latest heart rate as cards.

EXAMPLES:

  health_dashboard snapshot
  health_dashboard snapshot --types steps,heartRate,sleep
  HEALTH_PROVIDER_KIND=native health_dashboard snapshot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		types := snapshotTypes
		if len(types) == 0 {
			types = cfg.Session.DataTypes
		}
		set, err := models.ParseDataTypeSet(types)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		return runSnapshot(ctx, a, set)
	},
}

func init() {
	snapshotCmd.Flags().StringSliceVarP(&snapshotTypes, "types", "t", nil, "data types to request (default session.data_types)")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(ctx context.Context, a *app, types models.DataTypeSet) error {
	sess := a.services.Session

	msg, err := sess.Initialize(ctx)
	if err != nil {
		return sessionFailure("initialize", err)
	}
	color.Green("✓ %s", msg)

	msg, err = sess.RequestPermissions(ctx, types)
	if err != nil {
		return sessionFailure("permissions", err)
	}
	color.Green("✓ %s", msg)

	// auto-refresh may already have populated the metrics
	if s := sess.Snapshot(); s.LastRefreshAt == nil {
		if err := sess.Refresh(ctx); err != nil {
			color.Yellow("⚠ refresh failed: %s", healtherr.UserMessage(err))
		}
	}

	fmt.Println()
	return display.Render(os.Stdout, snapshotCards(sess.Snapshot())...)
}

func snapshotCards(s models.SessionSnapshot) []display.Card {
	var steps *float64
	if s.TodaySteps != nil {
		v := float64(*s.TodaySteps)
		steps = &v
	}
	failed := s.Error != nil
	return []display.Card{
		display.FormatCard("Steps today", steps, "steps", s.IsLoading, failed && steps == nil),
		display.FormatCard("Heart rate", s.LatestHeartRate, "bpm", s.IsLoading, failed && s.LatestHeartRate == nil),
	}
}

func sessionFailure(step string, err error) error {
	if denied := healtherr.DeniedTypes(err); len(denied) > 0 {
		color.Red("✗ %s: denied %v", step, denied)
	}
	return fmt.Errorf("%s failed: %s", step, healtherr.UserMessage(err))
}
