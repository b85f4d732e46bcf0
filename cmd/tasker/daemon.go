package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aryan2621/tasker/internal/config"
	"github.com/aryan2621/tasker/internal/dashboard"
	"github.com/aryan2621/tasker/internal/scheduler"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the sync daemon in the foreground. The daemon probes network
reachability, syncs on a periodic schedule with backoff retries, reacts
to connectivity regained, and optionally serves live sync status over
WebSocket.

Example usage:
  tasker daemon                  # Sync in the background
  tasker daemon --dashboard      # Also serve ws status on the configured port

Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		logDest := cfg.Log.LogWriter()
		logger := log.New(logDest, "[daemon] ", log.LstdFlags)

		a, err := newApp(ctx, logDest)
		if err != nil {
			return err
		}
		defer a.Close()

		a.engine.Start(ctx)

		trigger := scheduler.New(a.engine, a.prober, &scheduler.Config{
			Interval:       cfg.Sync.Interval,
			Flex:           cfg.Sync.Flex,
			InitialBackoff: cfg.Sync.InitialBackoff,
			MaxBackoff:     cfg.Sync.MaxBackoff,
			Logger:         log.New(logDest, "[scheduler] ", log.LstdFlags),
		})
		if err := trigger.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer trigger.Stop()

		wantDashboard, _ := cmd.Flags().GetBool("dashboard")
		if wantDashboard || cfg.Dashboard.Enabled {
			server := dashboard.NewServer(a.engine, &dashboard.Config{
				Port:   cfg.Dashboard.Port,
				Logger: log.New(logDest, "[dashboard] ", log.LstdFlags),
			})
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					logger.Printf("dashboard shutdown error: %v", err)
				}
			}()
			logger.Printf("dashboard at ws://localhost:%d/ws", cfg.Dashboard.Port)
		}

		// Config edits take effect on restart; the watch just makes that
		// visible in the log instead of silently ignoring the file.
		stopWatch, err := config.Watch(cfgFile, logger, func(next *config.Config) {
			logger.Printf("config file changed; restart the daemon to apply")
		})
		if err != nil {
			logger.Printf("WARNING: config watch unavailable: %v", err)
		} else {
			defer stopWatch()
		}

		// Catch up on anything queued while the daemon was down.
		a.engine.AttemptSync(ctx)

		logger.Printf("daemon running (sync every %s)", cfg.Sync.Interval)
		<-ctx.Done()

		logger.Printf("shutting down")
		return nil
	},
}

func init() {
	daemonCmd.Flags().Bool("dashboard", false, "serve live sync status over WebSocket")
	rootCmd.AddCommand(daemonCmd)
}
