package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tripwhen/internal/config"
	"tripwhen/internal/ics"
	appLog "tripwhen/internal/log"
	"tripwhen/internal/web"
	"tripwhen/internal/when"
)

const appVersion = "0.1.0"

func main() {
	if err := rootCommand().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "tripwhen",
		Short:   "Timezone-aware travel date and duration engine for the connection widget",
		Version: appVersion,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/tripwhen/config.yaml", "Path to config file")

	root.AddCommand(serveCommand(&configPath))
	root.AddCommand(planCommand(&configPath))
	root.AddCommand(durationCommand(&configPath))
	root.AddCommand(exportCommand(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func serveCommand(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with cron-driven plan refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("tripwhen starting", "version", appVersion)
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"language", cfg.Language,
				"refresh", cfg.RefreshCron,
				"activity_count", len(cfg.Activities),
			)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				appLog.Info("signal received, shutting down", "signal", sig.String())
				cancel()
			}()

			return web.Serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func planCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [activity-id]",
		Short: "Print the default travel date for an activity (or all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			activities := cfg.Activities
			if len(args) > 0 {
				a, err := cfg.Activity(args[0])
				if err != nil {
					return err
				}
				activities = []config.ActivityConfig{a}
			}
			if len(activities) == 0 {
				return fmt.Errorf("no activities configured in %s", *configPath)
			}

			now := time.Now()
			for _, a := range activities {
				d := when.DefaultDate(now, cfg.Timezone, a.LatestEnd, a.DurationMinutes)
				midnight := when.UTCMidnight(d.ISO(), cfg.Timezone, now)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					a.ID, d.ISO(), when.LocalizedFullDate(midnight, cfg.Language))
			}
			return nil
		},
	}
}

func durationCommand(configPath *string) *cobra.Command {
	var (
		date  string
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Format the travel time between two instants or two clocks",
		Long: "With --start/--end as ISO-8601 instants, prints the instant difference.\n" +
			"With --date plus --start/--end as HH:MM clocks, prints the zoned difference\n" +
			"in the configured timezone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			tr := cfg.Translator()

			if date == "" {
				fmt.Fprintln(cmd.OutOrStdout(), when.InstantDiffDisplay(start, end, tr))
				return nil
			}

			day, ok := parseISODate(date)
			if !ok {
				return fmt.Errorf("bad --date %q, want yyyy-MM-dd", date)
			}
			startTod, err := when.ParseClock(start)
			if err != nil {
				return err
			}
			endTod, err := when.ParseClock(end)
			if err != nil {
				return err
			}

			res := when.ZonedDiff(
				when.ZonedMoment{Date: day, Time: startTod, Zone: cfg.Timezone},
				when.ZonedMoment{Date: day, Time: endTod, Zone: cfg.Timezone},
				tr,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d min)\n", res.Text, res.TotalMinutes)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Calendar date (yyyy-MM-dd) for clock mode")
	cmd.Flags().StringVar(&start, "start", "", "Start instant or clock")
	cmd.Flags().StringVar(&end, "end", "", "End instant or clock")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func exportCommand(configPath *string) *cobra.Command {
	var (
		activityID string
		depart     string
		arrive     string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a trip as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := cfg.Activity(activityID)
			if err != nil {
				return err
			}
			dep, err := time.Parse(time.RFC3339, depart)
			if err != nil {
				return fmt.Errorf("bad --depart: %w", err)
			}
			arr, err := time.Parse(time.RFC3339, arrive)
			if err != nil {
				return fmt.Errorf("bad --arrive: %w", err)
			}

			payload, err := ics.Encode(ics.Trip{
				UID:     fmt.Sprintf("%s-%s@tripwhen", a.ID, dep.UTC().Format("20060102T150405Z")),
				Summary: a.Name,
				Depart:  dep,
				Arrive:  arr,
			}, cfg.Translator())
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := cmd.OutOrStdout().Write(payload)
				return err
			}
			return os.WriteFile(out, payload, 0o644)
		},
	}
	cmd.Flags().StringVar(&activityID, "activity", "", "Activity ID from the config")
	cmd.Flags().StringVar(&depart, "depart", "", "Departure instant (ISO-8601)")
	cmd.Flags().StringVar(&arrive, "arrive", "", "Arrival instant (ISO-8601)")
	cmd.Flags().StringVar(&out, "out", "trip.ics", `Output path ("-" for stdout)`)
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("depart")
	_ = cmd.MarkFlagRequired("arrive")
	return cmd
}

func parseISODate(s string) (when.CivilDate, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return when.CivilDate{}, false
	}
	return when.CivilDateOf(t), true
}
